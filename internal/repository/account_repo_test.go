package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qs3c/spanel_go_server/internal/model"
	"github.com/qs3c/spanel_go_server/internal/testutil"
)

func TestAccountRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	email := "alice@example.com"
	account := &model.Account{
		Username: "alice",
		Email:    &email,
		Money:    decimal.Zero,
		Port:     12345,
	}

	err := repo.Create(account)
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
}

func TestAccountRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)

	_, err := repo.GetByID(99999)
	assert.Error(t, err)
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	created := testutil.TestAccount(t, db, testutil.WithEmail("bob@example.com"))

	found, err := repo.GetByEmail("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestAccountRepository_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithEmail("carol@example.com"))

	exists, err := repo.ExistsByEmail("carol@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(account.Username)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByPort(account.Port)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAccountRepository_DebitMoney(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithMoney("25.50"))

	ok, err := repo.DebitMoney(account.ID, decimal.RequireFromString("10.25"))
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15.25").Equal(found.Money), "got %s", found.Money)
}

func TestAccountRepository_DebitMoney_Insufficient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithMoney("5"))

	ok, err := repo.DebitMoney(account.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(found.Money))
}

func TestAccountRepository_DebitMoney_ExactBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithMoney("10"))

	ok, err := repo.DebitMoney(account.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.True(t, found.Money.IsZero())
}

func TestAccountRepository_CreditMoney(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithMoney("1"))

	ok, err := repo.CreditMoney(account.ID, decimal.NewFromInt(20))
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(21).Equal(found.Money))

	ok, err = repo.CreditMoney(99999, decimal.NewFromInt(20))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountRepository_AddTransferEnable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithTraffic(1000, 0, 0))

	require.NoError(t, repo.AddTransferEnable(account.ID, 500))

	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), found.TransferEnable)
}

func TestAccountRepository_RaiseClass(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithClass(3, 0))

	require.NoError(t, repo.RaiseClass(account.ID, 1))
	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Class)

	require.NoError(t, repo.RaiseClass(account.ID, 5))
	found, err = repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.Class)
}

func TestAccountRepository_SetExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db)
	at := time.Now().Add(48 * time.Hour).Truncate(time.Second)

	require.NoError(t, repo.SetExpiry(account.ID, ExpiryFieldAccount, at))
	require.NoError(t, repo.SetExpiry(account.ID, ExpiryFieldClass, at))

	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ExpireIn)
	require.NotNil(t, found.ClassExpire)
	assert.True(t, at.Equal(*found.ExpireIn))
	assert.True(t, at.Equal(*found.ClassExpire))

	err = repo.SetExpiry(account.ID, "money", at)
	assert.ErrorIs(t, err, ErrUnknownExpiryField)
}

func TestAccountRepository_ListExpiringBetween(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	now := time.Now()
	soon := testutil.TestAccount(t, db, testutil.WithExpireIn(now.Add(24*time.Hour)))
	testutil.TestAccount(t, db, testutil.WithExpireIn(now.Add(10*24*time.Hour)))
	testutil.TestAccount(t, db, testutil.WithExpireIn(now.Add(-time.Hour)))
	testutil.TestAccount(t, db)

	accounts, err := repo.ListExpiringBetween(now, now.Add(3*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, soon.ID, accounts[0].ID)
}

func TestAccountRepository_EachBatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	for i := 0; i < 5; i++ {
		testutil.TestAccount(t, db, testutil.WithTraffic(100, int64(i), 1))
	}

	var seen int
	var batches int
	err := repo.EachBatch(2, func(accounts []model.Account) error {
		batches++
		seen += len(accounts)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, batches)
}

func TestAccountRepository_WithTx_Rollback(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAccountRepository(db)
	account := testutil.TestAccount(t, db, testutil.WithMoney("10"))

	tx := db.Begin()
	ok, err := repo.WithTx(tx).DebitMoney(account.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, ok)
	tx.Rollback()

	found, err := repo.GetByID(account.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(found.Money))
}

type sqlRecorder struct {
	logger.Interface
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func TestAccountRepository_LockByID_Clause(t *testing.T) {
	rec := &sqlRecorder{Interface: logger.Discard}
	mysqlDB, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "spanel:spanel@tcp(127.0.0.1:3306)/spanel?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: rec})
	require.NoError(t, err)

	_, err = NewAccountRepository(mysqlDB).LockByID(7)
	require.NoError(t, err)
	require.Len(t, rec.statements, 1)
	assert.Contains(t, rec.statements[0], "FOR UPDATE")

	// SQLite 不支持行锁，不能带 FOR UPDATE
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	rec.statements = nil
	_, err = NewAccountRepository(db.Session(&gorm.Session{DryRun: true, Logger: rec})).LockByID(7)
	require.NoError(t, err)
	require.Len(t, rec.statements, 1)
	assert.NotContains(t, rec.statements[0], "FOR UPDATE")
}
