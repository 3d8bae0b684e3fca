package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mail-routing-service/internal/domain"
)

// PostgresSource реализует чтение снимка данных из PostgreSQL.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource создает новый экземпляр PostgresSource.
func NewPostgresSource(db *sql.DB) domain.DataSource {
	return &PostgresSource{db: db}
}

// Name возвращает имя источника для логов.
func (s *PostgresSource) Name() string {
	return "postgres"
}

// Users возвращает пользователей снимка.
func (s *PostgresSource) Users(ctx context.Context) ([]domain.UserRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT uid,username FROM users ORDER BY uid,username;")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserRow
	for rows.Next() {
		var row domain.UserRow
		if err := rows.Scan(&row.UserID, &row.Username); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user rows: %w", err)
	}
	return out, nil
}

// UserAliases возвращает почтовые алиасы пользователей.
func (s *PostgresSource) UserAliases(ctx context.Context) ([]domain.UserAliasRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT uid,alias FROM user_aliases ORDER BY uid;")
	if err != nil {
		return nil, fmt.Errorf("failed to query user aliases: %w", err)
	}
	defer rows.Close()

	var out []domain.UserAliasRow
	for rows.Next() {
		var row domain.UserAliasRow
		if err := rows.Scan(&row.UserID, &row.Alias); err != nil {
			return nil, fmt.Errorf("failed to scan user alias row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user alias rows: %w", err)
	}
	return out, nil
}

// UserForwards возвращает настройки пересылки пользователей.
func (s *PostgresSource) UserForwards(ctx context.Context) ([]domain.UserForwardRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT uid,email_forward FROM users WHERE email_forward IS NOT NULL;")
	if err != nil {
		return nil, fmt.Errorf("failed to query user forwards: %w", err)
	}
	defer rows.Close()

	var out []domain.UserForwardRow
	for rows.Next() {
		var row domain.UserForwardRow
		if err := rows.Scan(&row.UserID, &row.Forward); err != nil {
			return nil, fmt.Errorf("failed to scan user forward row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user forward rows: %w", err)
	}
	return out, nil
}

// GroupAliases возвращает почтовые алиасы групп.
func (s *PostgresSource) GroupAliases(ctx context.Context) ([]domain.GroupAliasRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT gid,email_alias FROM group_aliases;")
	if err != nil {
		return nil, fmt.Errorf("failed to query group aliases: %w", err)
	}
	defer rows.Close()

	var out []domain.GroupAliasRow
	for rows.Next() {
		var row domain.GroupAliasRow
		if err := rows.Scan(&row.GroupID, &row.Alias); err != nil {
			return nil, fmt.Errorf("failed to scan group alias row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read group alias rows: %w", err)
	}
	return out, nil
}

// GroupRecipients возвращает напрямую назначенных получателей групп.
func (s *PostgresSource) GroupRecipients(ctx context.Context) ([]domain.GroupRecipientRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT gid,email_recipient FROM group_email_recipients;")
	if err != nil {
		return nil, fmt.Errorf("failed to query group recipients: %w", err)
	}
	defer rows.Close()

	var out []domain.GroupRecipientRow
	for rows.Next() {
		var row domain.GroupRecipientRow
		if err := rows.Scan(&row.GroupID, &row.Recipient); err != nil {
			return nil, fmt.Errorf("failed to scan group recipient row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read group recipient rows: %w", err)
	}
	return out, nil
}

// Рекурсивный запрос разворачивает иерархию групп с почтовыми алиасами.
// Каждая группа с алиасом засевается собственной вложенной группой,
// поэтому ее прямые участники входят в ее действующий состав. Обход
// останавливается на ребре, замкнувшем цикл, а объединение с group_data
// отбрасывает группы без данных и дает имя группы.
const queryEmailGroupClosure = `
WITH RECURSIVE search_email_groups(gid_of_group_with_email, gid_of_group_member, depth, path, cycle) AS (
        SELECT ga.gid, ga.gid::varchar(256), 1,
          ARRAY[ga.gid::varchar(256)]::varchar(256)[],
          false
        FROM group_aliases ga
      UNION ALL
        SELECT sg.gid_of_group_with_email, g.group_member::varchar(256), sg.depth + 1,
          (path || g.group_member::varchar(256))::varchar(256)[],
          g.group_member = ANY(path)
        FROM groups_in_groups g, search_email_groups sg
        WHERE g.gid = sg.gid_of_group_member AND NOT cycle
)
SELECT DISTINCT grec.gid_of_group_with_email, gd.ug1name, grec.gid_of_group_member,
       array_to_string(grec.path, ','), grec.cycle
FROM search_email_groups AS grec, group_data AS gd
WHERE grec.gid_of_group_with_email = gd.gid
ORDER BY gd.ug1name;`

// EmailGroupClosure возвращает развернутую иерархию групп с почтовыми
// алиасами, упорядоченную по имени группы.
func (s *PostgresSource) EmailGroupClosure(ctx context.Context) ([]domain.GroupClosureRow, error) {
	rows, err := s.db.QueryContext(ctx, queryEmailGroupClosure)
	if err != nil {
		return nil, fmt.Errorf("failed to query email group closure: %w", err)
	}
	defer rows.Close()

	var out []domain.GroupClosureRow
	for rows.Next() {
		var row domain.GroupClosureRow
		var path string
		if err := rows.Scan(&row.GroupID, &row.GroupName, &row.MemberGroupID, &path, &row.Cycle); err != nil {
			return nil, fmt.Errorf("failed to scan closure row: %w", err)
		}
		row.Path = strings.Split(path, ",")
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read closure rows: %w", err)
	}
	return out, nil
}

// GroupMembers возвращает прямые членства пользователей в группах.
func (s *PostgresSource) GroupMembers(ctx context.Context) ([]domain.GroupMemberRow, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT gid,uid FROM members_of_groups;")
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var out []domain.GroupMemberRow
	for rows.Next() {
		var row domain.GroupMemberRow
		if err := rows.Scan(&row.GroupID, &row.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan group member row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read group member rows: %w", err)
	}
	return out, nil
}
