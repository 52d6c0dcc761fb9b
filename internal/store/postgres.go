package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/access"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Postgres implements UnitOfWork on a pgx pool. Units of work run at read
// committed; balance rows and pending purchases are locked with FOR UPDATE.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed unit of work.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return p.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (p *Postgres) View(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return p.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly}, fn)
}

func (p *Postgres) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, r Repos) error) error {
	tx, err := p.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	repos := Repos{
		Accounts:     pgAccounts{tx: tx},
		Transactions: pgTransactions{tx: tx},
		Grants:       pgGrants{tx: tx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

func parseDecimal(s *string) (decimal.Decimal, error) {
	if s == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*s)
}

type pgAccounts struct {
	tx pgx.Tx
}

const accountColumns = `kind, id::text, user_id::text, balance::text, created_at, updated_at`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var (
		acct    ledger.Account
		kind    string
		balance string
	)
	if err := row.Scan(&kind, &acct.ID, &acct.UserID, &balance, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Account{}, ledger.ErrAccountNotFound
		}
		return ledger.Account{}, err
	}
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		return ledger.Account{}, err
	}
	acct.Kind = ledger.Kind(kind)
	acct.Balance = bal
	acct.CreatedAt = acct.CreatedAt.UTC()
	acct.UpdatedAt = acct.UpdatedAt.UTC()
	return acct, nil
}

func (r pgAccounts) Create(ctx context.Context, a ledger.Account) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO accounts (kind, id, user_id, balance, created_at, updated_at)
        VALUES ($1, $2::uuid, $3::uuid, $4::numeric, $5, $6)`,
		string(a.Kind), a.ID, a.UserID, a.Balance.String(), a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return ledger.ErrAccountExists
	}
	return err
}

func (r pgAccounts) Get(ctx context.Context, ref ledger.Ref) (ledger.Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE kind = $1 AND id = $2::uuid`,
		string(ref.Kind), ref.ID))
}

func (r pgAccounts) GetForUpdate(ctx context.Context, ref ledger.Ref) (ledger.Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE kind = $1 AND id = $2::uuid FOR UPDATE`,
		string(ref.Kind), ref.ID))
}

func (r pgAccounts) FindByUser(ctx context.Context, kind ledger.Kind, userID string) (ledger.Account, error) {
	return scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE kind = $1 AND user_id = $2::uuid`,
		string(kind), userID))
}

func (r pgAccounts) UpdateBalance(ctx context.Context, ref ledger.Ref, balance decimal.Decimal, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET balance = $1::numeric, updated_at = $2 WHERE kind = $3 AND id = $4::uuid`,
		balance.String(), at, string(ref.Kind), ref.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

type pgTransactions struct {
	tx pgx.Tx
}

const userTxColumns = `id::text, reader_id::text, transaction_type, status, nwt_amount::text, usd_amount::text,
        COALESCE(spend_category, ''), COALESCE(content_id::text, ''), COALESCE(creator_id::text, ''),
        COALESCE(external_payment_id, ''), COALESCE(settlement_reference, ''), metadata,
        COALESCE(failure_reason, ''), description, created_at, updated_at`

func scanUserTx(row pgx.Row) (transactions.UserTransaction, error) {
	var (
		t                        transactions.UserTransaction
		txType, status, category string
		nwtAmount                string
		usdAmount                *string
		metadata                 []byte
	)
	err := row.Scan(&t.ID, &t.ReaderID, &txType, &status, &nwtAmount, &usdAmount,
		&category, &t.ContentID, &t.CreatorID, &t.ExternalPaymentID, &t.SettlementReference, &metadata,
		&t.FailureReason, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transactions.UserTransaction{}, transactions.ErrNotFound
		}
		return transactions.UserTransaction{}, err
	}
	t.Type = transactions.UserType(txType)
	t.Status = transactions.Status(status)
	t.SpendCategory = transactions.SpendCategory(category)
	if t.NWTAmount, err = decimal.NewFromString(nwtAmount); err != nil {
		return transactions.UserTransaction{}, err
	}
	if usdAmount != nil {
		usd, err := decimal.NewFromString(*usdAmount)
		if err != nil {
			return transactions.UserTransaction{}, err
		}
		t.USDAmount = decimal.NewNullDecimal(usd)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return transactions.UserTransaction{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func encodeMetadata(m map[string]any) (*string, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	s := string(b)
	return &s, nil
}

func (r pgTransactions) InsertUser(ctx context.Context, t transactions.UserTransaction) error {
	metadata, err := encodeMetadata(t.Metadata)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO user_transactions (id, reader_id, transaction_type, status, nwt_amount, usd_amount,
        spend_category, content_id, creator_id, external_payment_id, settlement_reference, metadata, failure_reason,
        description, created_at, updated_at)
        VALUES ($1::uuid, $2::uuid, $3, $4, $5::numeric, $6::numeric, $7, $8::uuid, $9::uuid, $10, $11, $12::jsonb, $13, $14, $15, $16)`,
		t.ID, t.ReaderID, string(t.Type), string(t.Status), t.NWTAmount.String(), nullDecimal(t.USDAmount),
		nullString(string(t.SpendCategory)), nullString(t.ContentID), nullString(t.CreatorID),
		nullString(t.ExternalPaymentID), nullString(t.SettlementReference), metadata, nullString(t.FailureReason),
		t.Description, t.CreatedAt, t.UpdatedAt)
	if isUniqueViolation(err) {
		return transactions.ErrDuplicatePaymentID
	}
	return err
}

func (r pgTransactions) InsertCreator(ctx context.Context, t transactions.CreatorTransaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO creator_transactions (id, creator_id, transaction_type, status, nwt_amount,
        gross_amount, platform_fee, platform_fee_percentage, earning_source, content_id, purchaser_id,
        source_user_transaction_id, description, created_at, updated_at)
        VALUES ($1::uuid, $2::uuid, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9, $10::uuid, $11::uuid,
        $12::uuid, $13, $14, $15)`,
		t.ID, t.CreatorID, string(t.Type), string(t.Status), t.NWTAmount.String(),
		t.GrossAmount.String(), t.PlatformFee.String(), t.PlatformFeePercentage.String(),
		nullString(string(t.EarningSource)), nullString(t.ContentID), nullString(t.PurchaserID),
		nullString(t.SourceUserTransactionID), t.Description, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r pgTransactions) GetUser(ctx context.Context, id string) (transactions.UserTransaction, error) {
	return scanUserTx(r.tx.QueryRow(ctx, `SELECT `+userTxColumns+` FROM user_transactions WHERE id = $1::uuid`, id))
}

func (r pgTransactions) UserByExternalPaymentForUpdate(ctx context.Context, externalPaymentID string) (transactions.UserTransaction, error) {
	return scanUserTx(r.tx.QueryRow(ctx, `SELECT `+userTxColumns+` FROM user_transactions
        WHERE external_payment_id = $1 FOR UPDATE`, externalPaymentID))
}

func (r pgTransactions) UpdateSettlement(ctx context.Context, t transactions.UserTransaction) error {
	metadata, err := encodeMetadata(t.Metadata)
	if err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `UPDATE user_transactions
        SET status = $1, settlement_reference = $2, metadata = $3::jsonb, failure_reason = $4, updated_at = $5
        WHERE id = $6::uuid`,
		string(t.Status), nullString(t.SettlementReference), metadata, nullString(t.FailureReason), t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return transactions.ErrNotFound
	}
	return nil
}

type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *where) paginate(limit, offset int) string {
	s := ""
	if limit > 0 {
		w.args = append(w.args, limit)
		s += fmt.Sprintf(" LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		s += fmt.Sprintf(" OFFSET $%d", len(w.args))
	}
	return s
}

func (r pgTransactions) ListUser(ctx context.Context, f transactions.UserFilter) ([]transactions.UserTransaction, int, error) {
	var w where
	if f.ReaderID != "" {
		w.add("reader_id = $%d::uuid", f.ReaderID)
	}
	if f.Type != "" {
		w.add("transaction_type = $%d", string(f.Type))
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	var total int
	if err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM user_transactions`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + userTxColumns + ` FROM user_transactions` + w.String() + ` ORDER BY created_at DESC`
	query += w.paginate(f.Limit, f.Offset)
	rows, err := r.tx.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []transactions.UserTransaction{}
	for rows.Next() {
		t, err := scanUserTx(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

const creatorTxColumns = `id::text, creator_id::text, transaction_type, status, nwt_amount::text, gross_amount::text,
        platform_fee::text, platform_fee_percentage::text, COALESCE(earning_source, ''), COALESCE(content_id::text, ''),
        COALESCE(purchaser_id::text, ''), COALESCE(source_user_transaction_id::text, ''), description, created_at, updated_at`

func scanCreatorTx(row pgx.Row) (transactions.CreatorTransaction, error) {
	var (
		t                   transactions.CreatorTransaction
		txType, status, src string
		net                 string
		gross, fee, pct     *string
	)
	err := row.Scan(&t.ID, &t.CreatorID, &txType, &status, &net, &gross, &fee, &pct, &src,
		&t.ContentID, &t.PurchaserID, &t.SourceUserTransactionID, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return transactions.CreatorTransaction{}, transactions.ErrNotFound
		}
		return transactions.CreatorTransaction{}, err
	}
	t.Type = transactions.CreatorType(txType)
	t.Status = transactions.Status(status)
	t.EarningSource = transactions.EarningSource(src)
	if t.NWTAmount, err = decimal.NewFromString(net); err != nil {
		return transactions.CreatorTransaction{}, err
	}
	if t.GrossAmount, err = parseDecimal(gross); err != nil {
		return transactions.CreatorTransaction{}, err
	}
	if t.PlatformFee, err = parseDecimal(fee); err != nil {
		return transactions.CreatorTransaction{}, err
	}
	if t.PlatformFeePercentage, err = parseDecimal(pct); err != nil {
		return transactions.CreatorTransaction{}, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func (r pgTransactions) ListCreator(ctx context.Context, f transactions.CreatorFilter) ([]transactions.CreatorTransaction, int, error) {
	var w where
	if f.CreatorID != "" {
		w.add("creator_id = $%d::uuid", f.CreatorID)
	}
	if f.Type != "" {
		w.add("transaction_type = $%d", string(f.Type))
	}
	if f.SourceUserTransactionID != "" {
		w.add("source_user_transaction_id = $%d::uuid", f.SourceUserTransactionID)
	}
	var total int
	if err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM creator_transactions`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + creatorTxColumns + ` FROM creator_transactions` + w.String() + ` ORDER BY created_at DESC`
	query += w.paginate(f.Limit, f.Offset)
	rows, err := r.tx.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []transactions.CreatorTransaction{}
	for rows.Next() {
		t, err := scanCreatorTx(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r pgTransactions) UserTotals(ctx context.Context, readerID string) ([]transactions.Totals, error) {
	rows, err := r.tx.Query(ctx, `SELECT transaction_type, status, COALESCE(SUM(nwt_amount), 0)::text, COUNT(*)
        FROM user_transactions WHERE reader_id = $1::uuid GROUP BY transaction_type, status`, readerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []transactions.Totals
	for rows.Next() {
		var (
			t              transactions.Totals
			txType, status string
			amount         string
		)
		if err := rows.Scan(&txType, &status, &amount, &t.Count); err != nil {
			return nil, err
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		t.Type = transactions.UserType(txType)
		t.Status = transactions.Status(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

type pgGrants struct {
	tx pgx.Tx
}

func (r pgGrants) Insert(ctx context.Context, g access.Grant) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO content_grants (id, reader_id, content_id, content_kind, user_transaction_id, granted_at)
        VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5::uuid, $6)`,
		g.ID, g.ReaderID, g.ContentID, string(g.ContentKind), g.UserTransactionID, g.GrantedAt)
	if isUniqueViolation(err) {
		return access.ErrAlreadyGranted
	}
	return err
}

func (r pgGrants) Exists(ctx context.Context, readerID, contentID string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM content_grants WHERE reader_id = $1::uuid AND content_id = $2::uuid)`,
		readerID, contentID).Scan(&exists)
	return exists, err
}

func (r pgGrants) ListByReader(ctx context.Context, readerID string, limit, offset int) ([]access.Grant, int, error) {
	var w where
	w.add("reader_id = $%d::uuid", readerID)
	var total int
	if err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM content_grants`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT id::text, reader_id::text, content_id::text, content_kind, user_transaction_id::text, granted_at
        FROM content_grants` + w.String() + ` ORDER BY granted_at DESC` + w.paginate(limit, offset)
	rows, err := r.tx.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []access.Grant{}
	for rows.Next() {
		var (
			g    access.Grant
			kind string
		)
		if err := rows.Scan(&g.ID, &g.ReaderID, &g.ContentID, &kind, &g.UserTransactionID, &g.GrantedAt); err != nil {
			return nil, 0, err
		}
		g.ContentKind = access.ContentKind(kind)
		g.GrantedAt = g.GrantedAt.UTC()
		out = append(out, g)
	}
	return out, total, rows.Err()
}
