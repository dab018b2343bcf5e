package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-starter/internal/build"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// IdentityService інтерфейс зовнішнього каталогу користувачів
type IdentityService interface {
	IsInitialized() bool
	GetUser(ctx context.Context, id string) (*IdentityRecord, error)
	CreateUser(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error)
	UpdateUser(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error)
}

// IdentityRecord запис користувача в каталозі
type IdentityRecord struct {
	UID         string   `json:"uid"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	PhotoURL    string   `json:"photoURL"`
	ProviderIDs []string `json:"providerIds"`
	Disabled    bool     `json:"disabled"`
}

// HasProvider перевіряє чи провайдер вже прив'язаний до запису
func (r *IdentityRecord) HasProvider(provider string) bool {
	for _, p := range r.ProviderIDs {
		if p == provider {
			return true
		}
	}
	return false
}

// IdentityAttributes атрибути для створення/оновлення запису
type IdentityAttributes struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName,omitempty"`
	PhotoURL      string `json:"photoURL,omitempty"`
	ProviderID    string `json:"providerId,omitempty"`
}

// IdentityOptions налаштування клієнта каталогу
type IdentityOptions struct {
	BaseURL      string
	ProjectID    string
	APIKey       string
	EmulatorHost string
	Timeout      time.Duration
}

// identityService реалізація IdentityService поверх REST API
type identityService struct {
	client *resty.Client
	ready  bool
}

// NewIdentityService створює клієнт каталогу.
// Без base URL та emulator host сервіс вважається неініціалізованим.
func NewIdentityService(opts IdentityOptions) IdentityService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if opts.EmulatorHost != "" {
		baseURL = "http://" + strings.TrimRight(opts.EmulatorHost, "/")
		if opts.ProjectID != "" {
			baseURL += "/projects/" + opts.ProjectID
		}
		logrus.WithField("emulator_host", opts.EmulatorHost).Info("Identity service uses emulator")
	}

	if baseURL == "" {
		logrus.Warn("Identity service is not configured, synchronization disabled")
		return &identityService{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", build.UserAgent())
	if opts.APIKey != "" && opts.EmulatorHost == "" {
		client.SetAuthToken(opts.APIKey)
	}

	return &identityService{client: client, ready: true}
}

var (
	identityOnce     sync.Once
	identityInstance IdentityService
)

// InitIdentityService ініціалізує спільний клієнт каталогу один раз на процес.
// Повторні виклики повертають вже створений екземпляр.
func InitIdentityService(opts IdentityOptions) IdentityService {
	identityOnce.Do(func() {
		identityInstance = NewIdentityService(opts)
	})
	return identityInstance
}

func (s *identityService) IsInitialized() bool {
	return s.ready
}

// GetUser отримує запис за id; ErrIdentityUserNotFound якщо запису немає
func (s *identityService) GetUser(ctx context.Context, id string) (*IdentityRecord, error) {
	if !s.ready {
		return nil, ErrIdentityNotInitialized
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/users/{id}")
	if err != nil {
		return nil, fmt.Errorf("failed to get identity user: %w", err)
	}

	return parseIdentityResponse(resp, "get")
}

// CreateUser створює запис з заданим id
func (s *identityService) CreateUser(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error) {
	if !s.ready {
		return nil, ErrIdentityNotInitialized
	}

	body := map[string]interface{}{
		"uid":           id,
		"email":         attrs.Email,
		"emailVerified": attrs.EmailVerified,
		"displayName":   attrs.DisplayName,
		"photoURL":      attrs.PhotoURL,
		"providerId":    attrs.ProviderID,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/users")
	if err != nil {
		return nil, fmt.Errorf("failed to create identity user: %w", err)
	}

	record, err := parseIdentityResponse(resp, "create")
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"provider": attrs.ProviderID,
	}).Info("Identity user created")

	return record, nil
}

// UpdateUser оновлює атрибути запису
func (s *identityService) UpdateUser(ctx context.Context, id string, attrs IdentityAttributes) (*IdentityRecord, error) {
	if !s.ready {
		return nil, ErrIdentityNotInitialized
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(attrs).
		Patch("/users/{id}")
	if err != nil {
		return nil, fmt.Errorf("failed to update identity user: %w", err)
	}

	record, err := parseIdentityResponse(resp, "update")
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"provider": attrs.ProviderID,
	}).Info("Identity user updated")

	return record, nil
}

// parseIdentityResponse розбирає відповідь каталогу; 404 та USER_NOT_FOUND -> ErrIdentityUserNotFound
func parseIdentityResponse(resp *resty.Response, op string) (*IdentityRecord, error) {
	body := resp.Body()

	if resp.IsError() {
		code := gjson.GetBytes(body, "error.code").String()
		if code == "" {
			code = gjson.GetBytes(body, "code").String()
		}
		if resp.StatusCode() == http.StatusNotFound || code == "USER_NOT_FOUND" {
			return nil, ErrIdentityUserNotFound
		}

		message := gjson.GetBytes(body, "error.message").String()
		if message == "" {
			message = resp.Status()
		}
		return nil, fmt.Errorf("identity %s failed with status %d: %s", op, resp.StatusCode(), message)
	}

	user := gjson.ParseBytes(body)
	if user.Get("user").Exists() {
		user = user.Get("user")
	}

	record := &IdentityRecord{
		UID:         user.Get("uid").String(),
		Email:       user.Get("email").String(),
		DisplayName: user.Get("displayName").String(),
		PhotoURL:    user.Get("photoURL").String(),
		Disabled:    user.Get("disabled").Bool(),
	}
	for _, p := range user.Get("providerData.#.providerId").Array() {
		record.ProviderIDs = append(record.ProviderIDs, p.String())
	}

	return record, nil
}
