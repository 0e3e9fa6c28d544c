package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"redaid/internal/access"
	"redaid/internal/cache"
	"redaid/internal/identity"
	"redaid/internal/lifecycle"
	"redaid/internal/payment"
	"redaid/internal/reference"
	"redaid/internal/storage"
	"redaid/internal/store"
	"redaid/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

type Service struct {
	logger *logrus.Logger
	config *types.Config

	engine    *lifecycle.Engine
	sessions  *identity.Sessions
	provider  *identity.Provider
	payments  *payment.Service
	images    storage.ImageHost
	listCache *cache.RequestListCache
	locations *reference.Locations

	userRepo    *store.UserRepository
	requestRepo *store.DonationRequestRepository
	eventRepo   *store.RequestEventRepository
	blogRepo    *store.BlogRepository
	fundingRepo *store.FundingRepository

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	engine *lifecycle.Engine,
	sessions *identity.Sessions,
	provider *identity.Provider,
	payments *payment.Service,
	images storage.ImageHost,
	listCache *cache.RequestListCache,
	locations *reference.Locations,
	userRepo *store.UserRepository,
	requestRepo *store.DonationRequestRepository,
	eventRepo *store.RequestEventRepository,
	blogRepo *store.BlogRepository,
	fundingRepo *store.FundingRepository,
) *Service {
	mux := flow.New()

	s := &Service{
		logger:    logger,
		config:    config,
		engine:    engine,
		sessions:  sessions,
		provider:  provider,
		payments:  payments,
		images:    images,
		listCache: listCache,
		locations: locations,

		userRepo:    userRepo,
		requestRepo: requestRepo,
		eventRepo:   eventRepo,
		blogRepo:    blogRepo,
		fundingRepo: fundingRepo,

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)
	// flow matches whole segments, so trailing slashes are dealt with before routing.
	s.server.Handler = s.StripTrailingSlash(mux)

	return s
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)
	r.Use(s.ResolveSession)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
	r.HandleFunc("/register/confirm", s.handlePostRegisterConfirm, http.MethodPost)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/jwt", s.handlePostJWT, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)
	r.HandleFunc("/session", s.handleGetSession, http.MethodGet)

	r.HandleFunc("/districts", s.handleGetDistricts, http.MethodGet)
	r.HandleFunc("/upazilas", s.handleGetUpazilas, http.MethodGet)
	r.HandleFunc("/search-donors", s.handleSearchDonors, http.MethodGet)

	r.HandleFunc("/donation-requests", s.handleListDonationRequests, http.MethodGet)
	r.HandleFunc("/donation-requests/:id", s.handleGetDonationRequest, http.MethodGet)

	r.HandleFunc("/blogs", s.handleListBlogs, http.MethodGet)
	r.HandleFunc("/blogs/:id", s.handleGetBlog, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireCapability(access.Authenticated))

		r.HandleFunc("/users", s.handlePostUser, http.MethodPost)
		r.HandleFunc("/users/:email", s.handleGetUser, http.MethodGet)
		r.HandleFunc("/users/:email", s.handlePatchUser, http.MethodPatch)
		r.HandleFunc("/user/role/:email", s.handleGetUserRole, http.MethodGet)

		r.HandleFunc("/donation-requests", s.handleCreateDonationRequest, http.MethodPost)
		r.HandleFunc("/donation-requests/status/:id", s.handlePatchDonationRequestStatus, http.MethodPatch)
		r.HandleFunc("/donation-requests/:id", s.handlePatchDonationRequest, http.MethodPatch)
		r.HandleFunc("/donation-requests/:id", s.handleDeleteDonationRequest, http.MethodDelete)
		r.HandleFunc("/donation-requests/:id/events", s.handleGetDonationRequestEvents, http.MethodGet)
		r.HandleFunc("/my-donation-requests", s.handleMyDonationRequests, http.MethodGet)

		r.HandleFunc("/blogs", s.handleCreateBlog, http.MethodPost)
		r.HandleFunc("/blogs/:id", s.handlePatchBlog, http.MethodPatch)

		r.HandleFunc("/upload", s.handleUpload, http.MethodPost)

		r.HandleFunc("/create-donate-intent", s.handleCreateDonateIntent, http.MethodPost)
		r.HandleFunc("/funds", s.handlePostFund, http.MethodPost)
		r.HandleFunc("/funds", s.handleListFunds, http.MethodGet)

		r.HandleFunc("/dashboard-stat", s.handleDashboardStats, http.MethodGet)
	})

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireCapability(access.RoleAdmin))

		r.HandleFunc("/users", s.handleListUsers, http.MethodGet)
		r.HandleFunc("/user/role/:email", s.handlePatchUserRole, http.MethodPatch)
		r.HandleFunc("/user/status/:email", s.handlePatchUserStatus, http.MethodPatch)

		r.HandleFunc("/blogs/status/:id", s.handlePatchBlogStatus, http.MethodPatch)
		r.HandleFunc("/blogs/:id", s.handleDeleteBlog, http.MethodDelete)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
