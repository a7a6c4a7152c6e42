package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/auth"
	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/user"
)

var (
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("邮箱已注册")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	// ErrMissingCredentials 注册时邮箱和密码必填
	ErrMissingCredentials = errors.New("邮箱和密码不能为空")
	// ErrInvalidRole 只允许注册买家或商家
	ErrInvalidRole = errors.New("非法的用户角色")
)

type UserService struct {
	repo user.Repository
	jwt  *config.JWTConfig
}

func NewUserService(repo user.Repository, jwt *config.JWTConfig) *UserService {
	return &UserService{repo: repo, jwt: jwt}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

func newSalt() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// SignupInput 注册入参
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string // buyer / vendor，缺省 buyer
}

// Signup 注册并签发 JWT
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*user.User, string, error) {
	if in.Email == "" || in.Password == "" {
		return nil, "", ErrMissingCredentials
	}
	role := in.Role
	if role == "" {
		role = user.RoleBuyer
	}
	if role != user.RoleBuyer && role != user.RoleVendor {
		return nil, "", ErrInvalidRole
	}

	if existing, err := s.repo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	u := &user.User{
		Email:     in.Email,
		Salt:      newSalt(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
	}
	u.Password = hashPassword(in.Password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(s.jwt, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Signin 登录并返回 JWT
func (s *UserService) Signin(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if hashPassword(password, u.Salt) != u.Password {
		return nil, "", ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(s.jwt, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// GetByID 查询用户
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAll 后台用户列表
func (s *UserService) ListAll(ctx context.Context) ([]*user.User, error) {
	return s.repo.ListAll(ctx)
}
