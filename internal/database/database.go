package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/iabetor/aqtalk/internal/logger"
)

// DB 是 SQLite 数据库连接，目前用于缓存汉字文本到音声记号列的转换结果。
type DB struct {
	*sql.DB
	path string
}

// Open 打开或创建数据库。
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		return nil, errors.New("数据库路径为空")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// WAL 模式下多个 aqtalk 进程可以同时读缓存
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 busy_timeout 失败: %w", err)
	}

	logger.Debugf("[database] 数据库已打开: %s", dbPath)
	return &DB{DB: db, path: dbPath}, nil
}

// Path 返回数据库文件路径。
func (db *DB) Path() string {
	return db.path
}

// Migrate 运行数据库迁移。时间列保存 Unix 秒。
func (db *DB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS koe_cache (
			id TEXT PRIMARY KEY,
			dictionary TEXT NOT NULL,
			input TEXT NOT NULL,
			koe TEXT NOT NULL,
			hits INTEGER DEFAULT 0,
			created_at INTEGER NOT NULL,
			last_used INTEGER NOT NULL,
			UNIQUE(dictionary, input)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_koe_cache_last_used ON koe_cache(last_used)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	logger.Debugf("[database] 数据库迁移完成")
	return nil
}

// LookupKoe 查找 dictionary 词典下 input 的转换结果，命中时更新命中次数和最后使用时间。
func (db *DB) LookupKoe(dictionary, input string) (string, bool, error) {
	var id, koe string
	err := db.QueryRow(
		`SELECT id, koe FROM koe_cache WHERE dictionary = ? AND input = ?`,
		dictionary, input,
	).Scan(&id, &koe)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("查询转换缓存失败: %w", err)
	}

	if _, err := db.Exec(
		`UPDATE koe_cache SET hits = hits + 1, last_used = ? WHERE id = ?`,
		time.Now().Unix(), id,
	); err != nil {
		logger.Warnf("[database] 更新缓存命中信息失败: %v", err)
	}
	return koe, true, nil
}

// PutKoe 写入（或覆盖）一条转换结果。
func (db *DB) PutKoe(dictionary, input, koe string) error {
	now := time.Now().Unix()
	_, err := db.Exec(
		`INSERT INTO koe_cache (id, dictionary, input, koe, hits, created_at, last_used)
		 VALUES (?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(dictionary, input) DO UPDATE SET koe = excluded.koe, last_used = excluded.last_used`,
		uuid.NewString(), dictionary, input, koe, now, now,
	)
	if err != nil {
		return fmt.Errorf("写入转换缓存失败: %w", err)
	}
	return nil
}

// CacheStats 是转换缓存的统计信息。
type CacheStats struct {
	Entries int64
	Hits    int64
}

// Stats 返回缓存条目数与累计命中次数。
func (db *DB) Stats() (CacheStats, error) {
	var s CacheStats
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM koe_cache`).Scan(&s.Entries, &s.Hits)
	if err != nil {
		return s, fmt.Errorf("统计转换缓存失败: %w", err)
	}
	return s, nil
}

// PurgeKoe 删除超过 olderThan 未使用的缓存，返回删除条数。
func (db *DB) PurgeKoe(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := db.Exec(`DELETE FROM koe_cache WHERE last_used < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("清理转换缓存失败: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logger.Infof("[database] 已清理 %d 条过期转换缓存", n)
	}
	return n, nil
}

// Close 关闭数据库连接。
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}
