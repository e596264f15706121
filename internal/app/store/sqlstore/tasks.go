package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"gorm.io/gorm"
)

// TaskStore implements store.Tasks.
type TaskStore struct {
	db *gorm.DB
}

const newestFirst = "created_at DESC, id DESC"

func taskNotFound(id string) string { return fmt.Sprintf("task %s not found", id) }

func (s *TaskStore) Create(ctx context.Context, t models.Task) (models.Task, error) {
	ts := now()
	t.ID = newID()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return models.Task{}, notFoundOr(err, taskNotFound(id), "find task")
	}
	return t, nil
}

// scope applies f. instr() keeps the search case-sensitive, which LIKE is
// not in SQLite.
func scope(q *gorm.DB, f models.TaskFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		q = q.Where("(instr(problem_description, ?) > 0 OR instr(solution_provided, ?) > 0 OR instr(remarks, ?) > 0)",
			f.Search, f.Search, f.Search)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", f.To.UTC())
	}
	return q
}

func (s *TaskStore) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	out := make([]models.Task, 0)
	if err := scope(s.db.WithContext(ctx).Model(&models.Task{}), f).Order(newestFirst).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	return out, nil
}

func (s *TaskStore) Update(ctx context.Context, id string, p models.TaskPatch) (models.Task, error) {
	var out models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Task
		if err := tx.Where("id = ?", id).First(&cur).Error; err != nil {
			return notFoundOr(err, taskNotFound(id), "find task")
		}
		out = p.Apply(cur)
		out.UpdatedAt = now()
		return tx.Save(&out).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return out, nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundOr(gorm.ErrRecordNotFound, taskNotFound(id), "delete task")
	}
	return nil
}

func (s *TaskStore) Count(ctx context.Context, f models.TaskFilter) (int64, error) {
	var n int64
	if err := scope(s.db.WithContext(ctx).Model(&models.Task{}), f).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *TaskStore) CountBy(ctx context.Context, field models.TaskField) ([]models.NameCount, error) {
	switch field {
	case models.TaskFieldLSA, models.TaskFieldTSP, models.TaskFieldStatus:
	default:
		return nil, fmt.Errorf("count tasks by %q: unsupported field", field)
	}
	col := string(field)
	out := make([]models.NameCount, 0)
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Select(col + " AS name, COUNT(*) AS count").
		Group(col).Order(col).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("count tasks by %s: %w", field, err)
	}
	return out, nil
}

func (s *TaskStore) Recent(ctx context.Context, since time.Time, limit int) ([]models.Task, error) {
	out := make([]models.Task, 0, limit)
	err := s.db.WithContext(ctx).Where("created_at >= ?", since.UTC()).
		Order(newestFirst).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find recent tasks: %w", err)
	}
	return out, nil
}
