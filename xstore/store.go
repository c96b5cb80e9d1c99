package xstore

import (
	"context"
	"errors"

	"github.com/xiaoshicae/xdocscan/xerror"
	"github.com/xiaoshicae/xdocscan/xlog"

	stdMysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 100

// ErrNotFound 会话不存在
var ErrNotFound = errors.New("scan session not found")

// Store 扫描会话与帧结果的持久化
type Store struct {
	db        *gorm.DB
	batchSize int
}

func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, xerror.Newf("xstore", "new", "db can not be nil")
	}
	return &Store{db: db, batchSize: defaultBatchSize}, nil
}

// Migrate 建表及索引
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&ScanSession{}, &ScanFrame{}); err != nil {
		return xerror.Newf("xstore", "migrate", "auto migrate failed, err=[%w]", err)
	}
	return nil
}

// SaveSession 写入会话汇总，主键冲突时改为更新，重复保存同一会话是幂等的
func (s *Store) SaveSession(ctx context.Context, session *ScanSession) error {
	if session == nil || session.ID == "" {
		return xerror.Newf("xstore", "saveSession", "session id can not be empty")
	}
	db := s.db.WithContext(ctx)
	err := db.Create(session).Error
	if err == nil {
		return nil
	}
	if !isDuplicateKey(err) {
		return xerror.Newf("xstore", "saveSession", "create failed, id=[%s], err=[%w]", session.ID, err)
	}

	xlog.Info(ctx, "[xstore] session exists, update instead, id=[%s]", session.ID)
	err = db.Model(&ScanSession{ID: session.ID}).
		Select("*").Omit("ID", "CreatedAt").
		Updates(session).Error
	if err != nil {
		return xerror.Newf("xstore", "saveSession", "update failed, id=[%s], err=[%w]", session.ID, err)
	}
	return nil
}

// SaveFrames 分批写入帧结果，已存在的 (session, seq) 跳过
func (s *Store) SaveFrames(ctx context.Context, frames []ScanFrame) error {
	if len(frames) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "seq"}},
			DoNothing: true,
		}).
		CreateInBatches(frames, s.batchSize).Error
	if err != nil {
		return xerror.Newf("xstore", "saveFrames", "create in batches failed, n=[%d], err=[%w]", len(frames), err)
	}
	return nil
}

// GetSession 按 ID 查询会话，不存在返回 ErrNotFound
func (s *Store) GetSession(ctx context.Context, id string) (*ScanSession, error) {
	session := &ScanSession{}
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, xerror.Newf("xstore", "getSession", "query failed, id=[%s], err=[%w]", id, err)
	}
	return session, nil
}

// ListFrames 按 seq 升序返回会话内的帧结果
func (s *Store) ListFrames(ctx context.Context, sessionID string) ([]ScanFrame, error) {
	var frames []ScanFrame
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq").
		Find(&frames).Error
	if err != nil {
		return nil, xerror.Newf("xstore", "listFrames", "query failed, session=[%s], err=[%w]", sessionID, err)
	}
	return frames, nil
}

// isDuplicateKey 识别 postgres 23505 与 mysql 1062
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *stdMysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}
