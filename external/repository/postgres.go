package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/gunkan/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetSession(ctx context.Context) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, status, phone_number, pairing_code, connected_at, updated_at
		 FROM bot_sessions WHERE singleton`)
	var s repository.Session
	err := row.Scan(&s.ID, &s.Status, &s.PhoneNumber, &s.PairingCode, &s.ConnectedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) SaveSession(ctx context.Context, s repository.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bot_sessions (singleton, status, phone_number, pairing_code, connected_at, updated_at)
		 VALUES (TRUE, $1, $2, $3, $4, NOW())
		 ON CONFLICT (singleton) DO UPDATE SET
		   status = EXCLUDED.status,
		   phone_number = EXCLUDED.phone_number,
		   pairing_code = EXCLUDED.pairing_code,
		   connected_at = EXCLUDED.connected_at,
		   updated_at = NOW()`,
		s.Status, s.PhoneNumber, s.PairingCode, s.ConnectedAt)
	return err
}

const groupColumns = `id, name, member_count, bot_is_admin, moderation_enabled, anti_spam, anti_link,
	welcome_message, farewell_message, created_at, updated_at`

func scanGroup(row pgx.Row) (*repository.Group, error) {
	var g repository.Group
	err := row.Scan(&g.ID, &g.Name, &g.MemberCount, &g.BotIsAdmin, &g.ModerationEnabled, &g.AntiSpam, &g.AntiLink,
		&g.WelcomeMessage, &g.FarewellMessage, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *PostgresRepository) ListGroups(ctx context.Context) ([]repository.Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *g)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetGroup(ctx context.Context, id string) (*repository.Group, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

func (r *PostgresRepository) SyncGroup(ctx context.Context, input repository.SyncGroupInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO groups (id, name, member_count, bot_is_admin)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   member_count = EXCLUDED.member_count,
		   bot_is_admin = EXCLUDED.bot_is_admin,
		   updated_at = NOW()`,
		input.ID, input.Name, input.MemberCount, input.BotIsAdmin)
	return err
}

func (r *PostgresRepository) UpdateGroupSettings(ctx context.Context, id string, patch repository.GroupSettingsPatch) (*repository.Group, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx,
		`UPDATE groups SET
		   moderation_enabled = COALESCE($2, moderation_enabled),
		   anti_spam = COALESCE($3, anti_spam),
		   anti_link = COALESCE($4, anti_link),
		   welcome_message = COALESCE($5, welcome_message),
		   farewell_message = COALESCE($6, farewell_message),
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+groupColumns,
		id, patch.ModerationEnabled, patch.AntiSpam, patch.AntiLink, patch.WelcomeMessage, patch.FarewellMessage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *PostgresRepository) SetBotIsAdmin(ctx context.Context, id string, isAdmin bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE groups SET bot_is_admin = $2, updated_at = NOW() WHERE id = $1`, id, isAdmin)
	return err
}

func (r *PostgresRepository) DeleteGroup(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

const commandColumns = `name, description, category, enabled, admin_only, usage, created_at, updated_at`

func scanCommand(row pgx.Row) (*repository.Command, error) {
	var c repository.Command
	if err := row.Scan(&c.Name, &c.Description, &c.Category, &c.Enabled, &c.AdminOnly, &c.Usage, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) ListCommands(ctx context.Context, filter repository.CommandFilter) ([]repository.Command, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+commandColumns+` FROM commands
		 WHERE ($1 = '' OR category = $1)
		 ORDER BY name ASC`,
		string(filter.Category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Command
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetCommand(ctx context.Context, name string) (*repository.Command, error) {
	c, err := scanCommand(r.pool.QueryRow(ctx, `SELECT `+commandColumns+` FROM commands WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) EnsureCommand(ctx context.Context, c repository.Command) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO commands (name, description, category, enabled, admin_only, usage)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (name) DO NOTHING`,
		c.Name, c.Description, string(c.Category), c.Enabled, c.AdminOnly, c.Usage)
	return err
}

func (r *PostgresRepository) UpdateCommand(ctx context.Context, name string, patch repository.CommandPatch) (*repository.Command, error) {
	c, err := scanCommand(r.pool.QueryRow(ctx,
		`UPDATE commands SET
		   enabled = COALESCE($2, enabled),
		   admin_only = COALESCE($3, admin_only),
		   updated_at = NOW()
		 WHERE name = $1
		 RETURNING `+commandColumns,
		name, patch.Enabled, patch.AdminOnly))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) AppendLog(ctx context.Context, entry repository.LogEntry) error {
	var metadata []byte
	if len(entry.Metadata) > 0 {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encode log metadata: %w", err)
		}
		metadata = b
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO logs (level, source, message, metadata, created_at) VALUES ($1, $2, $3, $4, $5)`,
		string(entry.Level), string(entry.Source), entry.Message, metadata, ts)
	return err
}

func (r *PostgresRepository) ListLogs(ctx context.Context, filter repository.LogFilter) ([]repository.LogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = repository.DefaultLogLimit
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, level, source, message, metadata, created_at FROM logs
		 WHERE ($1 = '' OR level = $1) AND ($2 = '' OR source = $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		string(filter.Level), string(filter.Source), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.LogEntry
	for rows.Next() {
		var e repository.LogEntry
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.Level, &e.Source, &e.Message, &metadata, &e.Timestamp); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode log metadata %s: %w", e.ID, err)
			}
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) ClearLogs(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM logs`)
	return err
}

func (r *PostgresRepository) ListQueue(ctx context.Context, groupID string) ([]repository.QueueItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, title, artist, url, requested_by, position, status, created_at
		 FROM music_queue WHERE group_id = $1 ORDER BY position ASC`,
		groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.QueueItem
	for rows.Next() {
		var it repository.QueueItem
		if err := rows.Scan(&it.ID, &it.GroupID, &it.Title, &it.Artist, &it.URL, &it.RequestedBy, &it.Position, &it.Status, &it.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) InsertQueueItem(ctx context.Context, item repository.QueueItem) (*repository.QueueItem, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO music_queue (group_id, title, artist, url, requested_by, position, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		item.GroupID, item.Title, item.Artist, item.URL, item.RequestedBy, item.Position, string(item.Status))
	if err := row.Scan(&item.ID, &item.CreatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) UpdateQueueItemStatus(ctx context.Context, id string, status repository.QueueStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE music_queue SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClearQueue(ctx context.Context, groupID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM music_queue WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRepository) GetStats(ctx context.Context, day time.Time) (repository.Stats, error) {
	d := repository.Day(day)
	s := repository.Stats{Date: d}
	err := r.pool.QueryRow(ctx,
		`SELECT active_groups, commands_today, music_requests FROM stats WHERE day = $1`,
		d.Format(dayKeyLayout)).Scan(&s.ActiveGroups, &s.CommandsToday, &s.MusicRequests)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return repository.Stats{}, err
	}
	return s, nil
}

func (r *PostgresRepository) IncrementCommands(ctx context.Context, day time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stats (day, commands_today) VALUES ($1, 1)
		 ON CONFLICT (day) DO UPDATE SET commands_today = stats.commands_today + 1`,
		dayKey(day))
	return err
}

func (r *PostgresRepository) IncrementMusicRequests(ctx context.Context, day time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stats (day, music_requests) VALUES ($1, 1)
		 ON CONFLICT (day) DO UPDATE SET music_requests = stats.music_requests + 1`,
		dayKey(day))
	return err
}

func (r *PostgresRepository) SetActiveGroups(ctx context.Context, day time.Time, n int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stats (day, active_groups) VALUES ($1, $2)
		 ON CONFLICT (day) DO UPDATE SET active_groups = EXCLUDED.active_groups`,
		dayKey(day), n)
	return err
}
