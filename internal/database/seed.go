package database

import (
	"context"
	"fmt"
	"log/slog"

	"stonegames/internal/catalog"
	"stonegames/internal/models"
)

// Seeder is the slice of the catalog service Seed needs.
type Seeder interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (*models.Category, error)
	CreateGame(ctx context.Context, in catalog.GameInput) (*models.Game, error)
}

type seedGame struct {
	category int
	input    catalog.GameInput
}

var seedCategories = []catalog.CategoryInput{
	{Name: "益智游戏", NameEn: "Puzzle", Icon: "🧩"},
	{Name: "动作游戏", NameEn: "Action", Icon: "🎮"},
	{Name: "策略游戏", NameEn: "Strategy", Icon: "🎲"},
	{Name: "休闲游戏", NameEn: "Casual", Icon: "🏖️"},
	{Name: "射击游戏", NameEn: "Shooter", Icon: "🔫"},
}

var seedGames = []seedGame{
	{0, catalog.GameInput{
		Title:         "2048",
		TitleEn:       "2048",
		Description:   "滑动数字方块，相同数字合并，目标是得到 2048。",
		DescriptionEn: "Slide numbered tiles and merge equal ones until you reach 2048.",
		ImageURL:      "/images/games/2048.png",
		GameURL:       "https://play2048.co/",
		Developer:     "Gabriele Cirulli",
		Tags:          []string{"数字", "益智", "单人"},
		Content:       "## How to play\n\nUse the **arrow keys** to move every tile at once.",
	}},
	{1, catalog.GameInput{
		Title:         "贪吃蛇",
		TitleEn:       "Snake",
		Description:   "控制蛇吃食物并不断变长，同时避免碰到自己或墙壁。",
		DescriptionEn: "Control a snake to eat food and grow while avoiding collision with yourself or walls.",
		ImageURL:      "/images/games/snake.png",
		GameURL:       "https://playsnake.org/",
		Developer:     "Classic Game",
		Tags:          []string{"经典", "动作", "单人"},
	}},
	{0, catalog.GameInput{
		Title:         "俄罗斯方块",
		TitleEn:       "Tetris",
		Description:   "移动、旋转和放置不同形状的方块，完成行消除得分。",
		DescriptionEn: "Move, rotate and place blocks of different shapes to complete and clear lines for points.",
		ImageURL:      "/images/games/tetris.png",
		GameURL:       "https://tetris.com/play-tetris",
		Developer:     "Tetris",
		Tags:          []string{"经典", "益智", "单人"},
	}},
	{1, catalog.GameInput{
		Title:         "跳跃忍者",
		TitleEn:       "Jumping Ninja",
		Description:   "控制忍者角色跳跃，躲避障碍物并收集奖励。",
		DescriptionEn: "Control a ninja character to jump, dodge obstacles and collect rewards.",
		ImageURL:      "/images/games/ninja.png",
		GameURL:       "https://www.crazygames.com/game/ninja-jump",
		Developer:     "Crazy Games",
		Tags:          []string{"动作", "跳跃", "手机游戏"},
	}},
	{2, catalog.GameInput{
		Title:         "怪物生存",
		TitleEn:       "Monster Survivors",
		Description:   "在怪物世界中生存，收集资源并对抗怪物。",
		DescriptionEn: "Survive in a monster world, collect resources and fight against monsters.",
		ImageURL:      "/images/games/monster-survivors.png",
		GameURL:       "https://www.crazygames.com/game/monster-survivors",
		Developer:     "Peyoba Games",
		Tags:          []string{"生存", "怪物生存", "策略"},
	}},
}

// Seed populates an empty catalog with development data. Games go through
// the catalog service, so category counts come out of the normal count
// synchronization. It does nothing when any category exists.
func Seed(ctx context.Context, svc Seeder) error {
	existing, err := svc.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("catalog already seeded, skipping")
		return nil
	}

	ids := make([]string, len(seedCategories))
	for i, in := range seedCategories {
		c, err := svc.CreateCategory(ctx, in)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", in.NameEn, err)
		}
		ids[i] = c.ID
	}

	for _, sg := range seedGames {
		in := sg.input
		in.CategoryID = ids[sg.category]
		in.Tags = append([]string(nil), sg.input.Tags...)
		if _, err := svc.CreateGame(ctx, in); err != nil {
			return fmt.Errorf("seed game %s: %w", in.TitleEn, err)
		}
	}

	slog.Info("catalog seeded with development data",
		"categories", len(seedCategories),
		"games", len(seedGames),
	)
	return nil
}
