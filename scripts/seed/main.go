package main

import (
	"fmt"
	"log"
	"time"

	"github.com/habitloop/internal/config"
	"github.com/habitloop/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// 演示数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	createDemoUsers()
	createDemoHabits()
	createDemoChallenges()

	fmt.Println("演示数据生成完成！")
	fmt.Println("用户: alice / bob / carol (密码均为 demo123)")
	fmt.Println("习惯: 晨跑、阅读、冥想")
	fmt.Println("挑战: 30天早起挑战、一周无糖挑战")
}

// 创建演示用户
func createDemoUsers() {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	names := []struct {
		username string
		email    string
		bio      string
	}{
		{"alice", "alice@example.com", "每天进步一点点"},
		{"bob", "bob@example.com", "跑步与阅读爱好者"},
		{"carol", "carol@example.com", "正在养成早起习惯"},
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
	for _, n := range names {
		user := db.User{
			Username: n.username,
			Email:    n.email,
			Password: string(hashed),
			Bio:      n.bio,
		}
		db.DB.Create(&user)
	}

	fmt.Println("✅ 演示用户创建完成")
}

// 创建演示习惯并为 alice 关联打卡
func createDemoHabits() {
	var count int64
	db.DB.Model(&db.Habit{}).Count(&count)
	if count > 0 {
		fmt.Println("习惯已存在，跳过创建")
		return
	}

	var alice db.User
	db.DB.Where("username = ?", "alice").First(&alice)

	habits := []db.Habit{
		{Name: "晨跑", Description: "每天早上跑步 3 公里", Frequency: "daily", UserID: alice.ID},
		{Name: "阅读", Description: "每天阅读 30 分钟", Frequency: "daily", UserID: alice.ID},
		{Name: "冥想", Description: "每周冥想三次，每次 10 分钟", Frequency: "weekly", UserID: alice.ID},
	}
	for i := range habits {
		if err := db.DB.Create(&habits[i]).Error; err != nil {
			log.Printf("创建习惯失败: %v", err)
			continue
		}

		assignment := db.UserHabit{
			UserID:    alice.ID,
			HabitID:   habits[i].ID,
			StartDate: time.Now().AddDate(0, 0, -7),
		}
		if err := db.DB.Create(&assignment).Error; err != nil {
			log.Printf("关联习惯失败: %v", err)
		}
	}

	// 为晨跑补几天打卡记录
	for offset := 1; offset <= 5; offset++ {
		entry := db.HabitEntry{
			UserID:    alice.ID,
			HabitID:   habits[0].ID,
			EntryDate: time.Now().AddDate(0, 0, -offset),
			Progress:  "completed",
		}
		if err := db.DB.Create(&entry).Error; err != nil {
			log.Printf("创建打卡记录失败: %v", err)
		}
	}

	fmt.Println("✅ 演示习惯创建完成")
}

// 创建演示挑战并让 bob 加入
func createDemoChallenges() {
	var count int64
	db.DB.Model(&db.Challenge{}).Count(&count)
	if count > 0 {
		fmt.Println("挑战已存在，跳过创建")
		return
	}

	var alice, bob db.User
	db.DB.Where("username = ?", "alice").First(&alice)
	db.DB.Where("username = ?", "bob").First(&bob)

	challenges := []db.Challenge{
		{
			Name:        "30天早起挑战",
			Description: "连续 30 天在 7 点前起床",
			CreatedBy:   alice.ID,
			StartDate:   time.Now().AddDate(0, 0, 3),
			EndDate:     time.Now().AddDate(0, 0, 33),
		},
		{
			Name:        "一周无糖挑战",
			Description: "七天不摄入添加糖",
			CreatedBy:   bob.ID,
			StartDate:   time.Now().AddDate(0, 0, 1),
			EndDate:     time.Now().AddDate(0, 0, 8),
		},
	}
	for i := range challenges {
		if err := db.DB.Create(&challenges[i]).Error; err != nil {
			log.Printf("创建挑战失败: %v", err)
		}
	}

	participant := db.ChallengeParticipant{
		UserID:      bob.ID,
		ChallengeID: challenges[0].ID,
		JoinedDate:  time.Now(),
		Reason:      "想改掉熬夜的毛病",
	}
	if err := db.DB.Create(&participant).Error; err != nil {
		log.Printf("加入挑战失败: %v", err)
	}

	comment := db.Comment{
		Content:     "一起加油！",
		UserID:      bob.ID,
		ChallengeID: &challenges[0].ID,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("创建评论失败: %v", err)
	}

	fmt.Println("✅ 演示挑战创建完成")
}
