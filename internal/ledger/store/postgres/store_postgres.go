// Package postgres persists the ledger in PostgreSQL. The per-entity
// id listings are derived projections: indexed columns read in id
// order, rebuildable from the primary rows.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"chariledger/internal/ledger"
	"chariledger/internal/ledger/ports"
	"chariledger/pkg/platform/sentinel"
)

// Store is a PostgreSQL-backed ledger store.
type Store struct {
	db *sql.DB
}

// New constructs a store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureFeeRate seeds the platform fee rate if it has never been set.
func (s *Store) EnsureFeeRate(ctx context.Context, bps uint64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO platform_config (id, fee_rate_bps) VALUES (TRUE, $1)
		 ON CONFLICT (id) DO NOTHING`, int64(bps))
	if err != nil {
		return fmt.Errorf("seed fee rate: %w", err)
	}
	return nil
}

func (s *Store) GetCharity(ctx context.Context, id uint64) (ledger.Charity, error) {
	return getCharity(ctx, s.db, id)
}

func (s *Store) GetDonation(ctx context.Context, id uint64) (ledger.Donation, error) {
	return getDonation(ctx, s.db, id)
}

func (s *Store) TotalCharities(ctx context.Context) (uint64, error) {
	return counterValue(ctx, s.db, "charity_id")
}

func (s *Store) CharitiesByCreator(ctx context.Context, creator common.Address) ([]uint64, error) {
	return listIDs(ctx, s.db,
		`SELECT id FROM charities WHERE creator = $1 ORDER BY id`, creator.Hex())
}

func (s *Store) DonationsByDonor(ctx context.Context, donor common.Address) ([]uint64, error) {
	return listIDs(ctx, s.db,
		`SELECT id FROM donations WHERE donor = $1 ORDER BY id`, donor.Hex())
}

func (s *Store) DonationsByCharity(ctx context.Context, charityID uint64) ([]uint64, error) {
	return listIDs(ctx, s.db,
		`SELECT id FROM donations WHERE charity_id = $1 ORDER BY id`, int64(charityID))
}

func (s *Store) FeeRateBps(ctx context.Context) (uint64, error) {
	return feeRate(ctx, s.db)
}

// WithinTx runs fn inside a serializable transaction so the ledger's
// all-or-nothing contract holds under concurrent writers too.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &pgTx{q: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// querier abstracts *sql.DB and *sql.Tx for the shared read paths.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type pgTx struct {
	q *sql.Tx
}

func (tx *pgTx) GetCharity(ctx context.Context, id uint64) (ledger.Charity, error) {
	return getCharity(ctx, tx.q, id)
}

func (tx *pgTx) GetDonation(ctx context.Context, id uint64) (ledger.Donation, error) {
	return getDonation(ctx, tx.q, id)
}

func (tx *pgTx) TotalCharities(ctx context.Context) (uint64, error) {
	return counterValue(ctx, tx.q, "charity_id")
}

func (tx *pgTx) CharitiesByCreator(ctx context.Context, creator common.Address) ([]uint64, error) {
	return listIDs(ctx, tx.q,
		`SELECT id FROM charities WHERE creator = $1 ORDER BY id`, creator.Hex())
}

func (tx *pgTx) DonationsByDonor(ctx context.Context, donor common.Address) ([]uint64, error) {
	return listIDs(ctx, tx.q,
		`SELECT id FROM donations WHERE donor = $1 ORDER BY id`, donor.Hex())
}

func (tx *pgTx) DonationsByCharity(ctx context.Context, charityID uint64) ([]uint64, error) {
	return listIDs(ctx, tx.q,
		`SELECT id FROM donations WHERE charity_id = $1 ORDER BY id`, int64(charityID))
}

func (tx *pgTx) FeeRateBps(ctx context.Context) (uint64, error) {
	return feeRate(ctx, tx.q)
}

func (tx *pgTx) CreateCharity(ctx context.Context, c ledger.Charity) (uint64, error) {
	id, err := nextID(ctx, tx.q, "charity_id")
	if err != nil {
		return 0, err
	}
	_, err = tx.q.ExecContext(ctx,
		`INSERT INTO charities
		   (id, wallet, creator, name, description, category, target_amount,
		    raised_amount, created_at, is_active, is_verified, doc_reference)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $10, $11)`,
		int64(id), c.Wallet.Hex(), c.Creator.Hex(), c.Name, c.Description,
		c.Category, int64(c.TargetAmount), c.CreatedAt, c.IsActive,
		c.IsVerified, c.DocReference)
	if err != nil {
		return 0, fmt.Errorf("insert charity: %w", err)
	}
	return id, nil
}

func (tx *pgTx) InsertDonation(ctx context.Context, d ledger.Donation) (uint64, error) {
	res, err := tx.q.ExecContext(ctx,
		`UPDATE charities SET raised_amount = raised_amount + $1 WHERE id = $2`,
		int64(d.Amount), int64(d.CharityID))
	if err != nil {
		return 0, fmt.Errorf("update raised amount: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("update raised amount: %w", err)
	} else if n == 0 {
		return 0, sentinel.ErrNotFound
	}

	id, err := nextID(ctx, tx.q, "donation_id")
	if err != nil {
		return 0, err
	}
	_, err = tx.q.ExecContext(ctx,
		`INSERT INTO donations (id, charity_id, donor, amount, ts, message)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		int64(id), int64(d.CharityID), d.Donor.Hex(), int64(d.Amount),
		d.Timestamp, d.Message)
	if err != nil {
		return 0, fmt.Errorf("insert donation: %w", err)
	}
	return id, nil
}

func (tx *pgTx) SetVerified(ctx context.Context, charityID uint64, verified bool) error {
	return setCharityFlag(ctx, tx.q,
		`UPDATE charities SET is_verified = $1 WHERE id = $2`, verified, charityID)
}

func (tx *pgTx) SetActive(ctx context.Context, charityID uint64, active bool) error {
	return setCharityFlag(ctx, tx.q,
		`UPDATE charities SET is_active = $1 WHERE id = $2`, active, charityID)
}

func (tx *pgTx) SetFeeRateBps(ctx context.Context, bps uint64) error {
	_, err := tx.q.ExecContext(ctx,
		`UPDATE platform_config SET fee_rate_bps = $1 WHERE id`, int64(bps))
	if err != nil {
		return fmt.Errorf("set fee rate: %w", err)
	}
	return nil
}

func getCharity(ctx context.Context, q querier, id uint64) (ledger.Charity, error) {
	var c ledger.Charity
	var wallet, creator string
	var cid, target, raised int64
	err := q.QueryRowContext(ctx,
		`SELECT id, wallet, creator, name, description, category,
		        target_amount, raised_amount, created_at, is_active,
		        is_verified, doc_reference
		   FROM charities WHERE id = $1`, int64(id)).
		Scan(&cid, &wallet, &creator, &c.Name, &c.Description, &c.Category,
			&target, &raised, &c.CreatedAt, &c.IsActive, &c.IsVerified,
			&c.DocReference)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Charity{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ledger.Charity{}, fmt.Errorf("get charity: %w", err)
	}
	c.ID = uint64(cid)
	c.Wallet = common.HexToAddress(wallet)
	c.Creator = common.HexToAddress(creator)
	c.TargetAmount = uint64(target)
	c.RaisedAmount = uint64(raised)
	return c, nil
}

func getDonation(ctx context.Context, q querier, id uint64) (ledger.Donation, error) {
	var d ledger.Donation
	var donor string
	var did, chID, amount int64
	err := q.QueryRowContext(ctx,
		`SELECT id, charity_id, donor, amount, ts, message
		   FROM donations WHERE id = $1`, int64(id)).
		Scan(&did, &chID, &donor, &amount, &d.Timestamp, &d.Message)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Donation{}, sentinel.ErrNotFound
	}
	if err != nil {
		return ledger.Donation{}, fmt.Errorf("get donation: %w", err)
	}
	d.ID = uint64(did)
	d.CharityID = uint64(chID)
	d.Donor = common.HexToAddress(donor)
	d.Amount = uint64(amount)
	return d, nil
}

func listIDs(ctx context.Context, q querier, query string, arg any) ([]uint64, error) {
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, uint64(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	return ids, nil
}

func counterValue(ctx context.Context, q querier, name string) (uint64, error) {
	var v int64
	err := q.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = $1`, name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	return uint64(v), nil
}

func nextID(ctx context.Context, q querier, name string) (uint64, error) {
	var v int64
	err := q.QueryRowContext(ctx,
		`UPDATE counters SET value = value + 1 WHERE name = $1 RETURNING value`,
		name).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("allocate %s: %w", name, err)
	}
	return uint64(v), nil
}

func setCharityFlag(ctx context.Context, q querier, query string, flag bool, charityID uint64) error {
	res, err := q.ExecContext(ctx, query, flag, int64(charityID))
	if err != nil {
		return fmt.Errorf("update charity flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update charity flag: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func feeRate(ctx context.Context, q querier) (uint64, error) {
	var v int64
	err := q.QueryRowContext(ctx,
		`SELECT fee_rate_bps FROM platform_config WHERE id`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrInvalidState
	}
	if err != nil {
		return 0, fmt.Errorf("read fee rate: %w", err)
	}
	return uint64(v), nil
}
