package services

import (
  "context"
  "fmt"
  "time"
  "unicode/utf8"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  gocache "github.com/patrickmn/go-cache"
  "gorm.io/gorm"

  "github.com/wayfarer-org/wayfarer-backend/internal/apperr"
  "github.com/wayfarer-org/wayfarer-backend/internal/logger"
  "github.com/wayfarer-org/wayfarer-backend/internal/normalization"
  "github.com/wayfarer-org/wayfarer-backend/internal/repos"
  "github.com/wayfarer-org/wayfarer-backend/internal/requestdata"
  "github.com/wayfarer-org/wayfarer-backend/internal/types"
  "github.com/wayfarer-org/wayfarer-backend/internal/utils"
)

const maxNameLength = 80

type JWTClaims struct {
  jwt.RegisteredClaims
  UID string `json:"uid"`
}

type AuthService interface {
  Register(ctx context.Context, email, password, firstName, lastName string) (*types.User, string, error)
  Login(ctx context.Context, email, password string) (*types.User, string, error)
  Logout(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  SessionTTL() time.Duration
  CookieName() string
}

type authService struct {
  db              *gorm.DB
  log             *logger.Logger
  userRepo        repos.UserRepo
  authSessionRepo repos.AuthSessionRepo
  avatarService   AvatarService
  emailService    EmailService
  sessionCache    *gocache.Cache
  jwtSecretKey    string
  jwtIssuer       string
  sessionTTL      time.Duration
  cookieName      string
}

// NewAuthService wires registration, login and token verification.
// avatarService and emailService may be nil; both are best-effort extras
// around registration.
func NewAuthService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  authSessionRepo repos.AuthSessionRepo,
  avatarService AvatarService,
  emailService EmailService,
) AuthService {
  log := baseLog.With("service", "AuthService")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "", log)
  if jwtSecretKey == "" {
    log.Warn("JWT_SECRET_KEY is not set, issued tokens will not survive restarts", "fallback", "random")
    jwtSecretKey = uuid.New().String()
  }
  jwtIssuer := utils.GetEnv("JWT_ISSUER", "wayfarer-backend", log)
  sessionTTLSeconds := utils.GetEnvAsInt("SESSION_TTL_SECONDS", 2592000, log)
  cookieName := utils.GetEnv("AUTH_COOKIE_NAME", "AUTH_TOKEN", log)
  return &authService{
    db:              db,
    log:             log,
    userRepo:        userRepo,
    authSessionRepo: authSessionRepo,
    avatarService:   avatarService,
    emailService:    emailService,
    sessionCache:    gocache.New(30*time.Second, time.Minute),
    jwtSecretKey:    jwtSecretKey,
    jwtIssuer:       jwtIssuer,
    sessionTTL:      time.Duration(sessionTTLSeconds) * time.Second,
    cookieName:      cookieName,
  }
}

func (as *authService) SessionTTL() time.Duration {
  return as.sessionTTL
}

func (as *authService) CookieName() string {
  return as.cookieName
}

func (as *authService) Register(ctx context.Context, userEmail, userPassword, firstName, lastName string) (*types.User, string, error) {
  //1) Normalize Input
  email := normalization.ParseEmail(userEmail)
  password := normalization.ParseInputString(userPassword)
  first := normalization.ParseInputStringPtr(firstName)
  last := normalization.ParseInputStringPtr(lastName)

  //2) Input Validations
  if email == "" {
    return nil, "", apperr.Validation("Email is required.")
  }
  if len(password) < 8 {
    return nil, "", apperr.Validation("Password must be at least 8 characters long.")
  }
  if first != nil && utf8.RuneCountInString(*first) > maxNameLength {
    return nil, "", apperr.Validation("First name is too long.")
  }
  if last != nil && utf8.RuneCountInString(*last) > maxNameLength {
    return nil, "", apperr.Validation("Last name is too long.")
  }
  exists, eErr := as.userRepo.EmailExists(ctx, nil, email)
  if eErr != nil {
    as.log.Warn("Failure to check whether email already exists, Cannot proceed. Returning error.", "error", eErr)
    return nil, "", fmt.Errorf("error checking email: %w", eErr)
  }
  if exists {
    return nil, "", apperr.Conflict("An account with this email already exists.")
  }

  //3) Hash Password
  hashed, hErr := utils.HashPassword(password)
  if hErr != nil {
    as.log.Warn("Failure to hash password, Cannot proceed. Returning error.", "error", hErr)
    return nil, "", fmt.Errorf("error hashing password: %w", hErr)
  }

  //4) Create User + Session
  user := &types.User{
    ID:        uuid.New(),
    Email:     email,
    Password:  hashed,
    FirstName: first,
    LastName:  last,
  }
  var token string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, cErr := as.userRepo.Create(ctx, tx, user); cErr != nil {
      as.log.Warn("Failure to create user, Cannot proceed. Returning error.", "error", cErr)
      return fmt.Errorf("error creating user: %w", cErr)
    }
    tok, sErr := as.openSession(ctx, tx, user)
    if sErr != nil {
      return sErr
    }
    token = tok
    return nil
  }); err != nil {
    return nil, "", err
  }

  //5) Best-Effort Extras (avatar + welcome email)
  if as.avatarService != nil {
    if aErr := as.avatarService.CreateAndUploadUserAvatar(ctx, user); aErr != nil {
      as.log.Warn("Failed to create user avatar, continuing without one", "error", aErr)
    } else if user.AvatarBucketKey != "" {
      if _, uErr := as.userRepo.Update(ctx, nil, user); uErr != nil {
        as.log.Warn("Failed to persist user avatar fields, continuing", "error", uErr)
      }
    }
  }
  if as.emailService != nil {
    name := ""
    if user.FirstName != nil {
      name = *user.FirstName
    }
    if mErr := as.emailService.SendWelcomeEmail(ctx, user.Email, name); mErr != nil {
      as.log.Warn("Failed to send welcome email, continuing", "error", mErr)
    }
  }

  as.log.Info("User registered :)", "userId", user.ID)
  return user, token, nil
}

func (as *authService) Login(ctx context.Context, userEmail, userPassword string) (*types.User, string, error) {
  //1) Normalize Input
  email := normalization.ParseEmail(userEmail)
  password := normalization.ParseInputString(userPassword)
  if email == "" || password == "" {
    return nil, "", apperr.AuthRequired("Invalid email or password.")
  }

  //2) Find User By Email
  user, uErr := as.userRepo.GetByEmail(ctx, nil, email)
  if uErr != nil {
    as.log.Warn("Failure to retrieve user by email, Cannot proceed. Returning error.", "error", uErr)
    return nil, "", fmt.Errorf("error retrieving user by email: %w", uErr)
  }
  if user == nil {
    return nil, "", apperr.AuthRequired("Invalid email or password.")
  }
  if !utils.CheckPassword(user.Password, password) {
    return nil, "", apperr.AuthRequired("Invalid email or password.")
  }

  //3) Open Session
  var token string
  if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    tok, sErr := as.openSession(ctx, tx, user)
    if sErr != nil {
      return sErr
    }
    token = tok
    return nil
  }); err != nil {
    return nil, "", err
  }

  as.log.Info("User logged in :)", "userId", user.ID)
  return user, token, nil
}

func (as *authService) Logout(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return apperr.AuthRequired("Authentication required.")
  }
  if rErr := as.authSessionRepo.Revoke(ctx, nil, rd.SessionID); rErr != nil {
    as.log.Warn("Failure to revoke auth session, Cannot proceed. Returning error.", "error", rErr)
    return fmt.Errorf("error revoking session: %w", rErr)
  }
  as.sessionCache.Delete(rd.SessionID.String())
  as.log.Info("User logged out", "sessionId", rd.SessionID)
  return nil
}

// openSession creates the auth session row and signs its JWT inside the
// caller's transaction.
func (as *authService) openSession(ctx context.Context, tx *gorm.DB, user *types.User) (string, error) {
  session := &types.AuthSession{
    ID:        uuid.New(),
    UserID:    user.ID,
    ExpiresAt: time.Now().Add(as.sessionTTL),
  }
  if _, cErr := as.authSessionRepo.Create(ctx, tx, session); cErr != nil {
    as.log.Warn("Failure to create auth session, Cannot proceed. Returning error.", "error", cErr)
    return "", fmt.Errorf("error creating auth session: %w", cErr)
  }
  token, gErr := as.generateAccessToken(user, session)
  if gErr != nil {
    as.log.Warn("Failure to sign access token, Cannot proceed. Returning error.", "error", gErr)
    return "", fmt.Errorf("error signing access token: %w", gErr)
  }
  return token, nil
}

func (as *authService) generateAccessToken(user *types.User, session *types.AuthSession) (string, error) {
  now := time.Now()
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Issuer:    as.jwtIssuer,
      Subject:   user.ID.String(),
      ID:        session.ID.String(),
      IssuedAt:  jwt.NewNumericDate(now),
      ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
    },
    UID: user.ID.String(),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  //1) Parse + Verify Signature
  claims := &JWTClaims{}
  token, pErr := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if pErr != nil || !token.Valid {
    return ctx, apperr.AuthRequired("Authentication required.")
  }

  //2) Parse IDs Out Of Claims
  userID, uErr := uuid.Parse(claims.Subject)
  if uErr != nil {
    return ctx, apperr.AuthRequired("Authentication required.")
  }
  sessionID, sErr := uuid.Parse(claims.ID)
  if sErr != nil {
    return ctx, apperr.AuthRequired("Authentication required.")
  }

  //3) Verify Session Is Still Active
  session, gErr := as.lookupSession(ctx, sessionID)
  if gErr != nil {
    as.log.Warn("Failure to load auth session, Cannot proceed. Returning error.", "error", gErr)
    return ctx, fmt.Errorf("error loading auth session: %w", gErr)
  }
  if session == nil || session.UserID != userID || !session.Active(time.Now()) {
    return ctx, apperr.AuthRequired("Authentication required.")
  }

  rd := &requestdata.RequestData{
    TokenString: tokenString,
    SessionID:   sessionID,
    UserID:      userID,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

// lookupSession keeps a short cache in front of the sessions table so hot
// clients do not hit the DB on every request.
func (as *authService) lookupSession(ctx context.Context, sessionID uuid.UUID) (*types.AuthSession, error) {
  key := sessionID.String()
  if cached, found := as.sessionCache.Get(key); found {
    if session, ok := cached.(*types.AuthSession); ok {
      return session, nil
    }
  }
  session, err := as.authSessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    return nil, err
  }
  if session != nil {
    as.sessionCache.Set(key, session, gocache.DefaultExpiration)
  }
  return session, nil
}
