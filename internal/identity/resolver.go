package identity

import (
	"context"
	"fmt"
	"strconv"

	"OwaraiArchive/internal/canon"
	"OwaraiArchive/internal/model"
)

// ComedianStore Resolver 依赖的最小仓储接口（由 repository.ComedianRepository 实现）
type ComedianStore interface {
	// FindByName 按 (name, disambiguator) 精确查找，不存在时返回 nil, nil
	FindByName(ctx context.Context, name string, disambiguator *string) (*model.Comedian, error)
	// HasUndistinguished 是否已存在无区分符的同名艺人
	HasUndistinguished(ctx context.Context, name string) (bool, error)
	// ListDisambiguators 同名艺人已使用的全部区分符
	ListDisambiguators(ctx context.Context, name string) ([]string, error)
	// Upsert 写入艺人；冲突时只补空字段
	Upsert(ctx context.Context, c *model.Comedian) error
}

// Resolver 负责“查找或创建”艺人，保证同一规范化输入总落到同一 ID
type Resolver struct {
	store ComedianStore
}

func NewResolver(store ComedianStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveOrCreate 解析艺人；不存在时创建。第二个返回值表示是否新建。
//
// 未给区分符且同名“无区分符”槽位已被占用时，分配 max(数字区分符)+1，
// 其中无区分符的那位按 1 计。先出现者占槽，因此 CSV 行序必须稳定。
func (r *Resolver) ResolveOrCreate(ctx context.Context, name string, disambiguator *string) (*model.Comedian, bool, error) {
	name = canon.Normalize(name)
	if name == "" {
		return nil, false, fmt.Errorf("艺人名为空")
	}
	disambiguator = NormalizeNote(NoteValue(disambiguator))

	found, err := r.store.FindByName(ctx, name, disambiguator)
	if err != nil {
		return nil, false, fmt.Errorf("查询艺人失败: %w", err)
	}
	if found != nil {
		return found, false, nil
	}

	next := disambiguator
	if next == nil {
		taken, err := r.store.HasUndistinguished(ctx, name)
		if err != nil {
			return nil, false, fmt.Errorf("查询同名艺人失败: %w", err)
		}
		if taken {
			n, err := r.nextNumber(ctx, name)
			if err != nil {
				return nil, false, err
			}
			s := strconv.Itoa(n)
			next = &s
		}
	}

	c := &model.Comedian{
		ID:            ComedianID(name, NoteValue(next)),
		Name:          name,
		Disambiguator: next,
		Reading:       canon.GuessReading(name),
	}
	if err := r.store.Upsert(ctx, c); err != nil {
		return nil, false, fmt.Errorf("创建艺人失败: %w, name: %s", err, name)
	}
	return c, true, nil
}

func (r *Resolver) nextNumber(ctx context.Context, name string) (int, error) {
	notes, err := r.store.ListDisambiguators(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("查询区分符失败: %w", err)
	}
	highest := 1
	for _, n := range notes {
		if v, err := strconv.Atoi(n); err == nil && v > highest {
			highest = v
		}
	}
	return highest + 1, nil
}
