package users

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/boards"
	"github.com/uchan-net/uchan/internal/server/config"
	"github.com/uchan-net/uchan/internal/server/models"
	"github.com/uchan-net/uchan/internal/server/universities"
)

// GeneralUniversityID is the pseudo-university that groups the general
// boards every activated user is subscribed to. It is not a valid
// registration target.
const GeneralUniversityID int64 = 1

// HashPassword returns hex(SHA-256(salt + password)). The digest is
// deterministic: the same salt and password always produce the same value.
func HashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

// GenerateSalt returns a fresh 20-character hex salt for password storage.
func GenerateSalt() (string, error) {
	return common.MakeRandHexString(10)
}

// ActivationToken derives the activation token embedded in the account
// confirmation link: MD5(nickname + deviceID + secret), hex-encoded and
// regrouped into five hyphen-separated segments. It is not a security
// boundary on its own.
func ActivationToken(nickname, deviceID, secret string) string {
	sum := md5.Sum([]byte(nickname + deviceID + secret))
	hexed := hex.EncodeToString(sum[:])

	return hexed[0:7] + "-" + hexed[7:11] + "-" + hexed[11:15] + "-" + hexed[15:19] + "-" + hexed[19:]
}

// RegisterParams carries the already shape-validated registration fields.
type RegisterParams struct {
	Nickname   string
	Password   string
	University int64
	Email      string
	Female     bool
	DeviceID   string
}

type Service struct {
	repo         Repository
	boards       boards.Repository
	universities universities.Repository
	secretKey    string
}

func NewService(repo Repository, boardsRepo boards.Repository, universitiesRepo universities.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:         repo,
		boards:       boardsRepo,
		universities: universitiesRepo,
		secretKey:    cfg.SecretKey,
	}
}

// Register creates an inactive account. The university must exist and must
// not be the general pseudo-university. Duplicate nicknames or a duplicate
// (email, university) pair yield ErrorConflict.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*models.User, error) {

	if p.University == GeneralUniversityID {
		return nil, fmt.Errorf("%w: university", common.ErrorValidation)
	}
	if _, err := s.universities.GetByID(ctx, p.University); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: university", common.ErrorValidation)
		}
		return nil, err
	}

	taken, err := s.repo.EmailTaken(ctx, p.Email, p.University)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email already registered", common.ErrorConflict)
	}

	if _, err := s.repo.GetByNickname(ctx, p.Nickname); err == nil {
		return nil, fmt.Errorf("%w: nickname already registered", common.ErrorConflict)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}

	user := &models.User{
		Nickname:   p.Nickname,
		Password:   HashPassword(salt, p.Password),
		Salt:       salt,
		University: p.University,
		Email:      p.Email,
		Female:     p.Female,
		Activated:  false,
		Token:      ActivationToken(p.Nickname, p.DeviceID, s.secretKey),
	}

	return s.repo.Create(ctx, user)
}

// Activate flips the activation flag exactly once and subscribes the user
// to all general boards plus the home-university board.
func (s *Service) Activate(ctx context.Context, token string) (*models.User, error) {
	user, err := s.repo.GetByActivationToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if user.Activated {
		return nil, common.ErrorAlreadyActivated
	}

	if err := s.repo.Activate(ctx, user.ID); err != nil {
		return nil, err
	}
	user.Activated = true

	general, err := s.boards.ListByUniversity(ctx, GeneralUniversityID)
	if err != nil {
		return nil, err
	}
	for _, board := range general {
		if err := s.boards.Subscribe(ctx, user.ID, board.ID); err != nil {
			return nil, err
		}
	}

	home, err := s.boards.ListByUniversity(ctx, user.University)
	if err != nil {
		return nil, err
	}
	if len(home) > 0 {
		if err := s.boards.Subscribe(ctx, user.ID, home[0].ID); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// Authenticate resolves the nickname and compares password digests in
// constant time. An unknown nickname, a wrong password and an account that
// was never activated are indistinguishable at this boundary: all yield
// ErrorInvalidLogin.
func (s *Service) Authenticate(ctx context.Context, nickname, password string) (*models.User, error) {
	user, err := s.repo.GetByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidLogin
		}
		return nil, err
	}

	candidate := HashPassword(user.Salt, password)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(user.Password)) != 1 {
		return nil, common.ErrorInvalidLogin
	}

	if !user.Activated {
		return nil, common.ErrorInvalidLogin
	}

	return user, nil
}
