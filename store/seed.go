package store

import (
	"context"
	"fmt"
	"time"

	"github.com/LusX0117/itemsharing/domain"
)

// SeedAdmin configures the bootstrap admin account.
type SeedAdmin struct {
	Phone    string
	Nickname string
	Password string
}

type seedUser struct {
	id       string
	phone    string
	nickname string
	password string
	isAdmin  bool
}

var seedUsers = []seedUser{
	{id: "seed_lender_1", phone: "18800000001", nickname: "李同学", password: "123456"},
	{id: "seed_lender_2", phone: "18800000002", nickname: "王同学", password: "123456"},
	{id: "seed_lender_3", phone: "18800000003", nickname: "陈同学", password: "123456"},
	{id: "seed_lender_4", phone: "18800000004", nickname: "张同学", password: "123456"},
}

var seedItems = []domain.ItemPost{
	{
		Title: "高等数学（同济版）第七版", OwnerUserID: "seed_lender_1",
		OwnerName: "计算机学院 · 李同学", Category: "教材", Price: 8, Deposit: 20,
		Location: "图书馆一楼自习区", Description: "有少量笔记，适合备考同学短借。",
		Status: domain.ItemStatusAvailable,
	},
	{
		Title: "小米充电宝 20000mAh", OwnerUserID: "seed_lender_2",
		OwnerName: "经管学院 · 王同学", Category: "电子产品", Price: 5, Deposit: 30,
		Location: "一食堂门口", Description: "支持快充，含双线，日租。",
		Status: domain.ItemStatusAvailable,
	},
	{
		Title: "羽毛球拍（双拍）", OwnerUserID: "seed_lender_3",
		OwnerName: "体育学院 · 陈同学", Category: "运动器材", Price: 6, Deposit: 25,
		Location: "体育馆前台", Description: "含3个羽毛球，晚间可面交。",
		Status: "热门",
	},
	{
		Title: "宿舍小电扇", OwnerUserID: "seed_lender_4",
		OwnerName: "外国语学院 · 张同学", Category: "生活用品", Price: 4, Deposit: 15,
		Location: "南苑5栋", Description: "USB接口，支持三档风速。",
		Status: domain.ItemStatusAvailable,
	},
}

var seedDemands = []domain.DemandPost{
	{
		ID: "d1", Title: "求借：英语演讲比赛正装", PublisherUserID: "seed_lender_1",
		PublisherName: "新闻学院 · 赵同学", Category: "其他", Budget: 20,
		Location: "教学楼A区", Reward: "可提供20元感谢费",
		Description: "本周五晚使用一次，注意尺寸M。", Status: domain.DemandStatusOpen,
	},
	{
		ID: "d2", Title: "求借：单反相机一天", PublisherUserID: "seed_lender_2",
		PublisherName: "艺术学院 · 周同学", Category: "电子产品", Budget: 60,
		Location: "艺术楼", Reward: "可交换PS修图服务",
		Description: "周末外拍使用，器材会妥善保管。", Status: domain.DemandStatusOpen,
	},
}

// Seed provisions the demo users, the admin account and the starter posts.
// It is idempotent across restarts: users are upserted, posts are only
// inserted into empty tables.
func Seed(ctx context.Context, s Store, hashPassword func(string) (string, error), admin SeedAdmin) error {
	users := make([]seedUser, 0, len(seedUsers)+1)
	users = append(users, seedUsers...)
	users = append(users, seedUser{
		id:       "seed_admin_1",
		phone:    admin.Phone,
		nickname: admin.Nickname,
		password: admin.Password,
		isAdmin:  true,
	})

	for _, u := range users {
		hash, err := hashPassword(u.password)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		user := &domain.User{ID: u.id, Phone: u.phone, Nickname: u.nickname, IsAdmin: u.isAdmin}
		if err := s.UpsertUser(ctx, user, hash); err != nil {
			return fmt.Errorf("seed user %s: %w", u.id, err)
		}
	}

	count, err := s.CountItemPosts(ctx)
	if err != nil {
		return fmt.Errorf("count item posts: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	for i := range seedItems {
		post := seedItems[i]
		post.CreatedAt = now.Add(-time.Duration(i) * time.Second)
		post.UpdatedAt = post.CreatedAt
		if err := s.CreateItemPost(ctx, &post); err != nil {
			return fmt.Errorf("seed item post: %w", err)
		}
	}
	for i := range seedDemands {
		post := seedDemands[i]
		post.CreatedAt = now.Add(-time.Duration(i) * time.Second)
		post.UpdatedAt = post.CreatedAt
		if err := s.CreateDemandPost(ctx, &post); err != nil {
			return fmt.Errorf("seed demand post: %w", err)
		}
	}
	return nil
}
