package service

import (
	"context"
	"testing"
	"time"

	"tappay/internal/core/domain"
	"tappay/internal/core/ports"
	"tappay/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc        *AuthServiceImpl
	userRepo   *mocks.MockUserRepository
	walletRepo *mocks.MockWalletRepository
	hashSvc    *mocks.MockHashService
	tokenSvc   *mocks.MockTokenService
	sessions   *mocks.MockSessionStore
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		hashSvc:    mocks.NewMockHashService(ctrl),
		tokenSvc:   mocks.NewMockTokenService(ctrl),
		sessions:   mocks.NewMockSessionStore(ctrl),
	}
	d.svc = NewAuthService(d.userRepo, d.walletRepo, d.hashSvc, d.tokenSvc, d.sessions, 30*time.Minute, zerolog.Nop())
	return d
}

func TestAuth_Register_Success(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(nil, nil)
	d.hashSvc.EXPECT().Hash("s3cret-pass").Return("$argon2id$...", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) error {
		u.ID = 7
		return nil
	})
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, w *domain.Wallet) error {
		assert.Equal(t, int64(7), w.UserID)
		assert.True(t, w.Balance.IsZero())
		assert.Equal(t, domain.DefaultCurrency, w.Currency)
		return nil
	})

	user, err := d.svc.Register(ctx, ports.RegisterRequest{
		Email:    "  Alice@Example.COM ",
		FullName: "Alice",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.Active)
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "alice@example.com").Return(activeUser(1), nil)

	_, err := d.svc.Register(ctx, ports.RegisterRequest{Email: "alice@example.com", FullName: "Alice", Password: "s3cret-pass"})
	assertAppError(t, err, "STATE_005")
}

func TestAuth_Register_InvalidInput(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	_, err := d.svc.Register(ctx, ports.RegisterRequest{Email: "not-an-email", FullName: "X", Password: "s3cret-pass"})
	assertAppError(t, err, "VAL_003")

	_, err = d.svc.Register(ctx, ports.RegisterRequest{Email: "ok@example.com", FullName: "", Password: "s3cret-pass"})
	assertAppError(t, err, "VAL_001")

	_, err = d.svc.Register(ctx, ports.RegisterRequest{Email: "ok@example.com", FullName: "X", Password: "short"})
	assertAppError(t, err, "VAL_001")
}

func TestAuth_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	user := activeUser(7)
	user.PasswordHash = "$argon2id$..."
	expiresAt := time.Now().Add(time.Hour)

	d.userRepo.EXPECT().GetByEmail(ctx, "u@example.com").Return(user, nil)
	d.hashSvc.EXPECT().Verify("s3cret-pass", "$argon2id$...").Return(true, nil)
	d.sessions.EXPECT().Create(ctx, gomock.Any(), int64(7), 30*time.Minute).Return(nil)
	d.tokenSvc.EXPECT().Generate(int64(7), gomock.Any()).Return("jwt-token", expiresAt, nil)

	result, err := d.svc.Login(ctx, "u@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", result.Token)
	assert.Equal(t, expiresAt, result.ExpiresAt)
	assert.Equal(t, int64(7), result.User.ID)
}

func TestAuth_Login_UnknownEmail(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "ghost@example.com").Return(nil, nil)

	_, err := d.svc.Login(ctx, "ghost@example.com", "whatever")
	assertAppError(t, err, "AUTHZ_002")
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	user := activeUser(7)
	user.PasswordHash = "$argon2id$..."

	d.userRepo.EXPECT().GetByEmail(ctx, "u@example.com").Return(user, nil)
	d.hashSvc.EXPECT().Verify("wrong", "$argon2id$...").Return(false, nil)

	_, err := d.svc.Login(ctx, "u@example.com", "wrong")
	assertAppError(t, err, "AUTHZ_002")
}

func TestAuth_Login_InactiveUser(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	user := activeUser(7)
	user.Active = false
	user.PasswordHash = "$argon2id$..."

	d.userRepo.EXPECT().GetByEmail(ctx, "u@example.com").Return(user, nil)
	d.hashSvc.EXPECT().Verify("s3cret-pass", "$argon2id$...").Return(true, nil)

	_, err := d.svc.Login(ctx, "u@example.com", "s3cret-pass")
	assertAppError(t, err, "STATE_001")
}

func TestAuth_Logout_RevokesSession(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.sessions.EXPECT().Revoke(ctx, "sess-abc").Return(nil)

	require.NoError(t, d.svc.Logout(ctx, "sess-abc"))
}

func TestAuth_Deactivate(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByID(ctx, int64(7)).Return(activeUser(7), nil)
	d.userRepo.EXPECT().SetActive(ctx, int64(7), false).Return(nil)

	require.NoError(t, d.svc.Deactivate(ctx, 7))
}

func TestAuth_Deactivate_Unknown(t *testing.T) {
	d := setupAuthService(t)
	ctx := context.Background()

	d.userRepo.EXPECT().GetByID(ctx, int64(7)).Return(nil, nil)

	err := d.svc.Deactivate(ctx, 7)
	assertAppError(t, err, "VAL_004")
}
