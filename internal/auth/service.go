package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shivshakti/boutique-backend/internal/users"
	pkgAuth "github.com/shivshakti/boutique-backend/pkg/auth"
	"github.com/shivshakti/boutique-backend/pkg/auth/session"
	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/db"
	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/enums"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/mailer"
	"github.com/shivshakti/boutique-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	invalidCodeMessage        = "invalid or expired code, please request a new one"
	socialPasswordLength      = 32
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	SendOTP(ctx context.Context, req SendOTPRequest) error
	Signup(ctx context.Context, req SignupRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type adminPolicy interface {
	Apply(ctx context.Context, user *models.User) (bool, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
// Mailer and Google are optional; their endpoints fail with a configuration
// error when absent.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	AdminPolicy    adminPolicy
	OTPStore       OTPStore
	Mailer         mailer.Sender
	Google         GoogleVerifier
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	OTPConfig      config.OTPConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users       userRepository
	session     sessionManager
	policy      adminPolicy
	otp         OTPStore
	mail        mailer.Sender
	google      GoogleVerifier
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	otpCfg      config.OTPConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.AdminPolicy == nil {
		return nil, fmt.Errorf("admin policy is required")
	}
	if params.OTPStore == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	otpCfg := params.OTPConfig
	if otpCfg.TTL <= 0 {
		otpCfg.TTL = 5 * time.Minute
	}
	if otpCfg.Digits <= 0 {
		otpCfg.Digits = 6
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		policy:      params.AdminPolicy,
		otp:         params.OTPStore,
		mail:        params.Mailer,
		google:      params.Google,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		otpCfg:      otpCfg,
		logg:        params.Logger,
		now:         now,
	}, nil
}

func (s *service) SendOTP(ctx context.Context, req SendOTPRequest) error {
	if s.mail == nil {
		return pkgerrors.New(pkgerrors.CodeConfiguration, "email delivery is not configured")
	}
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	code, err := security.GenerateNumericCode(s.otpCfg.Digits)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	if err := s.otp.Save(ctx, email, code, s.otpCfg.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store code")
	}

	minutes := int(s.otpCfg.TTL.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	msg := mailer.Message{
		To:        email,
		Subject:   "Your verification code",
		PlainText: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes),
		HTML: fmt.Sprintf(
			`<div style="font-family:sans-serif;text-align:center"><p>Your verification code is</p><p style="font-size:32px;font-weight:900;letter-spacing:10px">%s</p><p style="color:#888;font-size:12px">This code will expire in %d minutes.</p></div>`,
			html.EscapeString(code), minutes,
		),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send verification email")
	}
	s.logg.Info(s.logg.WithField(ctx, "email_domain", emailDomain(email)), "auth.otp.sent")
	return nil
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*LoginResponse, error) {
	email := users.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	fieldErrs := map[string]string{}
	if name == "" {
		fieldErrs["name"] = "is required"
	}
	if email == "" {
		fieldErrs["email"] = "is required"
	}
	if strings.TrimSpace(req.OTP) == "" {
		fieldErrs["otp"] = "is required"
	}
	if len(fieldErrs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid signup").WithDetails(fieldErrs)
	}
	if err := users.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	ok, err := s.otp.Consume(ctx, email, strings.TrimSpace(req.OTP))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify code")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidCodeMessage)
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var phone *string
	if req.Phone != nil {
		if p := strings.TrimSpace(*req.Phone); p != "" {
			phone = &p
		}
	}
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		IsVerified:   true,
		AuthProvider: enums.AuthProviderLocal,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.signup")
	return s.completeLogin(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, user)
}

func (s *service) GoogleLogin(ctx context.Context, req GoogleLoginRequest) (*LoginResponse, error) {
	if s.google == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "google sign-in is not configured")
	}
	identity, err := s.google.Verify(ctx, req.Token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid google token")
	}
	email := users.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "google account has no email")
	}

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createGoogleUser(ctx, email, identity)
		if err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	return s.completeLogin(ctx, user)
}

func (s *service) createGoogleUser(ctx context.Context, email string, identity *GoogleIdentity) (*models.User, error) {
	random, err := security.GenerateTempPassword(socialPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(random, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   identity.EmailVerified,
		AuthProvider: enums.AuthProviderGoogle,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return s.users.FindByEmail(ctx, email)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.google.signup")
	return user, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, security.ErrInvalidHash) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		s.rehash(ctx, user, password)
	}
	return user, nil
}

func (s *service) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.rehash.failed")
		return
	}
	user.PasswordHash = hash
}

// completeLogin applies the admin policy, records the login and issues tokens.
func (s *service) completeLogin(ctx context.Context, user *models.User) (*LoginResponse, error) {
	if _, err := s.policy.Apply(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply admin policy")
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   enums.RoleFor(user.IsAdmin),
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func emailDomain(email string) string {
	if idx := strings.LastIndex(email, "@"); idx >= 0 {
		return email[idx+1:]
	}
	return ""
}
