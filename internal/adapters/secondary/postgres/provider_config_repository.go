package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/secrets"
)

// ProviderConfigRepository persists the singleton provider configuration.
// The password is sealed with the credentials key before it is written.
type ProviderConfigRepository struct {
	pool *pgxpool.Pool
	box  *secrets.Box
}

var _ ports.ProviderConfigRepository = (*ProviderConfigRepository)(nil)

func NewProviderConfigRepository(pool *pgxpool.Pool, box *secrets.Box) *ProviderConfigRepository {
	return &ProviderConfigRepository{pool: pool, box: box}
}

func (r *ProviderConfigRepository) Get(ctx context.Context) (*domain.ProviderConfig, error) {
	var (
		cfg       domain.ProviderConfig
		kind      string
		tlsPolicy string
		sealed    string
		timeoutMS int64
	)

	err := r.pool.QueryRow(ctx, `
		SELECT kind, host, port, username, password_sealed, from_address, from_name,
		       sendmail_path, tls_policy, timeout_ms, updated_at
		FROM provider_config WHERE id = 1`).
		Scan(&kind, &cfg.Host, &cfg.Port, &cfg.Username, &sealed, &cfg.FromAddress, &cfg.FromName,
			&cfg.SendmailPath, &tlsPolicy, &timeoutMS, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	password, err := r.box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("open stored provider password: %w", err)
	}

	cfg.Kind = domain.ProviderKind(kind)
	cfg.TLSPolicy = domain.TLSPolicy(tlsPolicy)
	cfg.Password = password
	cfg.Timeout = time.Duration(timeoutMS) * time.Millisecond
	return &cfg, nil
}

func (r *ProviderConfigRepository) Save(ctx context.Context, cfg domain.ProviderConfig) error {
	sealed, err := r.box.Seal(cfg.Password)
	if err != nil {
		return fmt.Errorf("seal provider password: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO provider_config (id, kind, host, port, username, password_sealed, from_address,
		                             from_name, sendmail_path, tls_policy, timeout_ms, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			host = EXCLUDED.host,
			port = EXCLUDED.port,
			username = EXCLUDED.username,
			password_sealed = EXCLUDED.password_sealed,
			from_address = EXCLUDED.from_address,
			from_name = EXCLUDED.from_name,
			sendmail_path = EXCLUDED.sendmail_path,
			tls_policy = EXCLUDED.tls_policy,
			timeout_ms = EXCLUDED.timeout_ms,
			updated_at = NOW()`,
		string(cfg.Kind), cfg.Host, cfg.Port, cfg.Username, sealed, cfg.FromAddress,
		cfg.FromName, cfg.SendmailPath, string(cfg.TLSPolicy), cfg.Timeout.Milliseconds())
	if err != nil {
		return fmt.Errorf("save provider config: %w", err)
	}
	return nil
}
