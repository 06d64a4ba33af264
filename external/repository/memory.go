package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/google/uuid"
)

const dayKeyLayout = "2006-01-02"

// MemoryRepository keeps everything in process memory. It backs
// STORAGE_DRIVER=memory and the package tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	now      func() time.Time
	session  *repository.Session
	groups   map[string]repository.Group
	commands map[string]repository.Command
	logs     []repository.LogEntry
	queue    map[string][]repository.QueueItem
	stats    map[string]repository.Stats
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:      time.Now,
		groups:   make(map[string]repository.Group),
		commands: make(map[string]repository.Command),
		queue:    make(map[string][]repository.QueueItem),
		stats:    make(map[string]repository.Stats),
	}
}

func (r *MemoryRepository) GetSession(_ context.Context) (*repository.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session == nil {
		return nil, nil
	}
	s := *r.session
	return &s, nil
}

func (r *MemoryRepository) SaveSession(_ context.Context, s repository.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		if r.session != nil {
			s.ID = r.session.ID
		} else {
			s.ID = uuid.NewString()
		}
	}
	s.UpdatedAt = r.now()
	r.session = &s
	return nil
}

func (r *MemoryRepository) ListGroups(_ context.Context) ([]repository.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]repository.Group, 0, len(r.groups))
	for _, g := range r.groups {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *MemoryRepository) GetGroup(_ context.Context, id string) (*repository.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *MemoryRepository) SyncGroup(_ context.Context, input repository.SyncGroupInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	g, ok := r.groups[input.ID]
	if !ok {
		g = repository.Group{
			ID:                input.ID,
			ModerationEnabled: true,
			AntiSpam:          true,
			CreatedAt:         now,
		}
	}
	g.Name = input.Name
	g.MemberCount = input.MemberCount
	g.BotIsAdmin = input.BotIsAdmin
	g.UpdatedAt = now
	r.groups[input.ID] = g
	return nil
}

func (r *MemoryRepository) UpdateGroupSettings(_ context.Context, id string, patch repository.GroupSettingsPatch) (*repository.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.ModerationEnabled != nil {
		g.ModerationEnabled = *patch.ModerationEnabled
	}
	if patch.AntiSpam != nil {
		g.AntiSpam = *patch.AntiSpam
	}
	if patch.AntiLink != nil {
		g.AntiLink = *patch.AntiLink
	}
	if patch.WelcomeMessage != nil {
		g.WelcomeMessage = *patch.WelcomeMessage
	}
	if patch.FarewellMessage != nil {
		g.FarewellMessage = *patch.FarewellMessage
	}
	g.UpdatedAt = r.now()
	r.groups[id] = g
	return &g, nil
}

func (r *MemoryRepository) SetBotIsAdmin(_ context.Context, id string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil
	}
	g.BotIsAdmin = isAdmin
	g.UpdatedAt = r.now()
	r.groups[id] = g
	return nil
}

func (r *MemoryRepository) DeleteGroup(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

func (r *MemoryRepository) ListCommands(_ context.Context, filter repository.CommandFilter) ([]repository.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]repository.Command, 0, len(r.commands))
	for _, c := range r.commands {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *MemoryRepository) GetCommand(_ context.Context, name string) (*repository.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) EnsureCommand(_ context.Context, c repository.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.commands[c.Name]; ok {
		return nil
	}
	now := r.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.commands[c.Name] = c
	return nil
}

func (r *MemoryRepository) UpdateCommand(_ context.Context, name string, patch repository.CommandPatch) (*repository.Command, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.commands[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if patch.Enabled != nil {
		c.Enabled = *patch.Enabled
	}
	if patch.AdminOnly != nil {
		c.AdminOnly = *patch.AdminOnly
	}
	c.UpdatedAt = r.now()
	r.commands[name] = c
	return &c, nil
}

func (r *MemoryRepository) AppendLog(_ context.Context, entry repository.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	r.logs = append(r.logs, entry)
	return nil
}

func (r *MemoryRepository) ListLogs(_ context.Context, filter repository.LogFilter) ([]repository.LogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	limit := filter.Limit
	if limit <= 0 {
		limit = repository.DefaultLogLimit
	}
	list := make([]repository.LogEntry, 0, limit)
	for i := len(r.logs) - 1; i >= 0 && len(list) < limit; i-- {
		e := r.logs[i]
		if filter.Level != "" && e.Level != filter.Level {
			continue
		}
		if filter.Source != "" && e.Source != filter.Source {
			continue
		}
		list = append(list, e)
	}
	return list, nil
}

func (r *MemoryRepository) ClearLogs(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = nil
	return nil
}

func (r *MemoryRepository) ListQueue(_ context.Context, groupID string) ([]repository.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := append([]repository.QueueItem(nil), r.queue[groupID]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (r *MemoryRepository) InsertQueueItem(_ context.Context, item repository.QueueItem) (*repository.QueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = r.now()
	}
	r.queue[item.GroupID] = append(r.queue[item.GroupID], item)
	return &item, nil
}

func (r *MemoryRepository) UpdateQueueItemStatus(_ context.Context, id string, status repository.QueueStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for groupID, items := range r.queue {
		for i := range items {
			if items[i].ID == id {
				r.queue[groupID][i].Status = status
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (r *MemoryRepository) ClearQueue(_ context.Context, groupID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.queue[groupID])
	delete(r.queue, groupID)
	return n, nil
}

func (r *MemoryRepository) GetStats(_ context.Context, day time.Time) (repository.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsFor(day), nil
}

func (r *MemoryRepository) IncrementCommands(_ context.Context, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statsFor(day)
	s.CommandsToday++
	r.stats[dayKey(day)] = s
	return nil
}

func (r *MemoryRepository) IncrementMusicRequests(_ context.Context, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statsFor(day)
	s.MusicRequests++
	r.stats[dayKey(day)] = s
	return nil
}

func (r *MemoryRepository) SetActiveGroups(_ context.Context, day time.Time, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statsFor(day)
	s.ActiveGroups = n
	r.stats[dayKey(day)] = s
	return nil
}

// statsFor must be called with r.mu held.
func (r *MemoryRepository) statsFor(day time.Time) repository.Stats {
	if s, ok := r.stats[dayKey(day)]; ok {
		return s
	}
	return repository.Stats{Date: repository.Day(day)}
}

func dayKey(day time.Time) string {
	return repository.Day(day).Format(dayKeyLayout)
}
