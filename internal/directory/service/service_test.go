package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"staffgate/internal/directory/cache"
	"staffgate/internal/directory/metrics"
	"staffgate/internal/directory/models"
	"staffgate/internal/directory/retry"
	"staffgate/internal/directory/service/mocks"
	"staffgate/internal/directory/upstream"
	dErrors "staffgate/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Gateway,SnapshotCache
type DirectoryServiceSuite struct {
	suite.Suite
	ctx     context.Context
	gateway *mocks.MockGateway
	cache   *cache.Cache
	metrics *metrics.Metrics
	sleeps  *sleepRecorder
	service *Service
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func TestDirectoryServiceSuite(t *testing.T) {
	suite.Run(t, new(DirectoryServiceSuite))
}

func (s *DirectoryServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
	s.gateway = mocks.NewMockGateway(ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.sleeps = &sleepRecorder{}

	retrier := retry.New(retry.DefaultPolicy(),
		retry.WithSleep(s.sleeps.sleep),
		retry.WithLogger(logger),
		retry.WithMetrics(s.metrics),
	)
	s.cache = cache.New(
		retry.Wrap(retrier, string(upstream.OpFetchAll), s.gateway.FetchAll),
		cache.WithLogger(logger),
		cache.WithMetrics(s.metrics),
	)
	s.service = New(s.gateway, s.cache, retrier,
		WithLogger(logger),
		WithMetrics(s.metrics),
	)
}

var (
	alice = models.Employee{ID: uuid.MustParse("5255f1a5-f9f7-4be5-829a-134bde088d17"), Name: "Alice Smith", Salary: 95000, Age: 31, Title: "Engineer", Email: "alice@company.com"}
	bob   = models.Employee{ID: uuid.MustParse("2b6e4e38-5c5a-4b1e-9f1c-4d8f2a1b7c3e"), Name: "Bob Jones", Salary: 75000, Age: 44, Title: "Manager", Email: "bob@company.com"}
	carol = models.Employee{ID: uuid.MustParse("9a0d3c1e-7f2b-4e6a-8c5d-1b2a3c4d5e6f"), Name: "Carol Alison", Salary: 120000, Age: 52, Title: "Director", Email: "carol@company.com"}
)

func upstreamErr(op upstream.Op, outcome upstream.Outcome, status int) error {
	return &upstream.Error{Op: op, Outcome: outcome, Status: status}
}

func validInput() *models.CreateEmployeeInput {
	return &models.CreateEmployeeInput{Name: "Dana Reyes", Salary: 88000, Age: 29, Title: "Analyst"}
}

func (s *DirectoryServiceSuite) TestReadsAreServedFromSnapshot() {
	s.gateway.EXPECT().FetchAll(gomock.Any()).Return([]models.Employee{alice, bob, carol}, nil).Times(1)

	all, err := s.service.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)

	matches, err := s.service.SearchByName(s.ctx, "ali")
	s.Require().NoError(err)
	s.Equal([]models.Employee{alice, carol}, matches)

	highest, err := s.service.HighestSalary(s.ctx)
	s.Require().NoError(err)
	s.Equal(120000, highest)

	names, err := s.service.TopTenNames(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"Carol Alison", "Alice Smith", "Bob Jones"}, names)
}

func (s *DirectoryServiceSuite) TestGetAllReturnsCopy() {
	s.gateway.EXPECT().FetchAll(gomock.Any()).Return([]models.Employee{alice, bob}, nil).Times(1)

	first, err := s.service.GetAll(s.ctx)
	s.Require().NoError(err)
	first[0].Name = "mutated"

	second, err := s.service.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Equal("Alice Smith", second[0].Name)
}

func (s *DirectoryServiceSuite) TestEmptyDirectory() {
	s.gateway.EXPECT().FetchAll(gomock.Any()).Return([]models.Employee{}, nil).Times(1)

	highest, err := s.service.HighestSalary(s.ctx)
	s.Require().NoError(err)
	s.Zero(highest)

	names, err := s.service.TopTenNames(s.ctx)
	s.Require().NoError(err)
	s.Empty(names)
}

func (s *DirectoryServiceSuite) TestFetchAllRateLimitedUntilExhausted() {
	s.gateway.EXPECT().FetchAll(gomock.Any()).
		Return(nil, upstreamErr(upstream.OpFetchAll, upstream.OutcomeRateLimited, 429)).
		Times(4)

	_, err := s.service.GetAll(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
	s.True(retry.IsExhausted(err))
	s.Equal([]time.Duration{20 * time.Second, 30 * time.Second, 45 * time.Second}, s.sleeps.recorded())

	_, ok := s.cache.Peek()
	s.False(ok, "failure publishes nothing")
}

func (s *DirectoryServiceSuite) TestFetchAllTransportFailure() {
	s.gateway.EXPECT().FetchAll(gomock.Any()).
		Return(nil, upstreamErr(upstream.OpFetchAll, upstream.OutcomeTransport, 503)).
		Times(1)

	_, err := s.service.SearchByName(s.ctx, "bob")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Empty(s.sleeps.recorded(), "only rate limiting is retried")
}

func (s *DirectoryServiceSuite) TestGetByID() {
	s.Run("upstream answers directly", func() {
		s.SetupTest()
		s.gateway.EXPECT().FetchByID(gomock.Any(), alice.ID).Return(alice, nil)

		got, err := s.service.GetByID(s.ctx, alice.ID)
		s.Require().NoError(err)
		s.Equal(alice, got)
		_, ok := s.cache.Peek()
		s.False(ok, "direct hit does not touch the cache")
	})

	s.Run("rate limited upstream falls back to snapshot", func() {
		s.SetupTest()
		s.gateway.EXPECT().FetchByID(gomock.Any(), bob.ID).
			Return(models.Employee{}, upstreamErr(upstream.OpFetchByID, upstream.OutcomeRateLimited, 429))
		s.gateway.EXPECT().FetchAll(gomock.Any()).Return([]models.Employee{alice, bob}, nil)

		got, err := s.service.GetByID(s.ctx, bob.ID)
		s.Require().NoError(err)
		s.Equal(bob, got)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.FallbackLookups.WithLabelValues("hit")))
		s.Empty(s.sleeps.recorded(), "by-id lookup is never retried")
	})

	s.Run("not in snapshot either", func() {
		s.SetupTest()
		missing := uuid.New()
		s.gateway.EXPECT().FetchByID(gomock.Any(), missing).
			Return(models.Employee{}, upstreamErr(upstream.OpFetchByID, upstream.OutcomeNotFound, 404))
		s.gateway.EXPECT().FetchAll(gomock.Any()).Return([]models.Employee{alice, bob}, nil)

		_, err := s.service.GetByID(s.ctx, missing)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.FallbackLookups.WithLabelValues("miss")))
	})

	s.Run("fallback fetch fails", func() {
		s.SetupTest()
		s.gateway.EXPECT().FetchByID(gomock.Any(), alice.ID).
			Return(models.Employee{}, upstreamErr(upstream.OpFetchByID, upstream.OutcomeTransport, 500))
		s.gateway.EXPECT().FetchAll(gomock.Any()).
			Return(nil, upstreamErr(upstream.OpFetchAll, upstream.OutcomeTransport, 500))

		_, err := s.service.GetByID(s.ctx, alice.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.FallbackLookups.WithLabelValues("error")))
	})
}

func (s *DirectoryServiceSuite) TestCreate() {
	s.Run("invalid age never reaches upstream", func() {
		s.SetupTest()
		for _, age := range []int{15, 76} {
			in := validInput()
			in.Age = age
			_, err := s.service.Create(s.ctx, in)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), "age %d", age)
		}
	})

	s.Run("nil input", func() {
		s.SetupTest()
		_, err := s.service.Create(s.ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("success invalidates snapshot", func() {
		s.SetupTest()
		created := models.Employee{ID: uuid.New(), Name: "Dana Reyes", Salary: 88000, Age: 29, Title: "Analyst"}
		gomock.InOrder(
			s.gateway.EXPECT().FetchAll(gomock.Any()).Return([]models.Employee{alice}, nil),
			s.gateway.EXPECT().Create(gomock.Any(), *validInput()).Return(created, nil),
			s.gateway.EXPECT().FetchAll(gomock.Any()).Return([]models.Employee{alice, created}, nil),
		)

		_, err := s.service.GetAll(s.ctx)
		s.Require().NoError(err)

		got, err := s.service.Create(s.ctx, validInput())
		s.Require().NoError(err)
		s.Equal(created, got)

		all, err := s.service.GetAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 2)
		all, err = s.service.GetAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 2, "second read is served from the new snapshot")
	})

	s.Run("persistent rate limit exhausts four attempts", func() {
		s.SetupTest()
		s.gateway.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(models.Employee{}, upstreamErr(upstream.OpCreate, upstream.OutcomeRateLimited, 429)).
			Times(4)

		_, err := s.service.Create(s.ctx, validInput())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
		s.Equal([]time.Duration{20 * time.Second, 30 * time.Second, 45 * time.Second}, s.sleeps.recorded())
		s.Equal(uint64(0), s.cache.Epoch(), "failed write leaves the cache alone")
	})

	s.Run("upstream rejection is not retried", func() {
		s.SetupTest()
		s.gateway.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(models.Employee{}, upstreamErr(upstream.OpCreate, upstream.OutcomeClientError, 400)).
			Times(1)

		_, err := s.service.Create(s.ctx, validInput())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.Empty(s.sleeps.recorded())
	})
}

func (s *DirectoryServiceSuite) TestDeleteByID() {
	s.Run("unknown id", func() {
		s.SetupTest()
		missing := uuid.New()
		s.gateway.EXPECT().FetchByID(gomock.Any(), missing).
			Return(models.Employee{}, upstreamErr(upstream.OpFetchByID, upstream.OutcomeNotFound, 404))

		_, err := s.service.DeleteByID(s.ctx, missing)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "employee does not exist")
	})

	s.Run("rate limited name lookup is not retried", func() {
		s.SetupTest()
		s.gateway.EXPECT().FetchByID(gomock.Any(), alice.ID).
			Return(models.Employee{}, upstreamErr(upstream.OpFetchByID, upstream.OutcomeRateLimited, 429)).
			Times(1)

		_, err := s.service.DeleteByID(s.ctx, alice.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
		s.Empty(s.sleeps.recorded())
	})

	s.Run("deletes by resolved name after transient rate limit", func() {
		s.SetupTest()
		gomock.InOrder(
			s.gateway.EXPECT().FetchByID(gomock.Any(), bob.ID).Return(bob, nil),
			s.gateway.EXPECT().DeleteByName(gomock.Any(), "Bob Jones").
				Return(upstreamErr(upstream.OpDelete, upstream.OutcomeRateLimited, 429)),
			s.gateway.EXPECT().DeleteByName(gomock.Any(), "Bob Jones").Return(nil),
		)

		name, err := s.service.DeleteByID(s.ctx, bob.ID)
		s.Require().NoError(err)
		s.Equal("Bob Jones", name)
		s.Equal([]time.Duration{20 * time.Second}, s.sleeps.recorded())
		s.Equal(uint64(1), s.cache.Epoch(), "successful delete invalidates")
	})
}

func TestWriteFailureDoesNotInvalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	snapshots := mocks.NewMockSnapshotCache(ctrl)
	retrier := retry.New(retry.DefaultPolicy(), retry.WithSleep(func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}))
	svc := New(gateway, snapshots, retrier, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	gateway.EXPECT().FetchByID(gomock.Any(), alice.ID).Return(alice, nil)
	gateway.EXPECT().DeleteByName(gomock.Any(), alice.Name).Return(errors.New("connection reset"))
	snapshots.EXPECT().Invalidate().Times(0)

	_, err := svc.DeleteByID(context.Background(), alice.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestCancelledCreateStopsRetrying(t *testing.T) {
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	snapshots := mocks.NewMockSnapshotCache(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	retrier := retry.New(retry.DefaultPolicy(), retry.WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	svc := New(gateway, snapshots, retrier, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	gateway.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(models.Employee{}, upstreamErr(upstream.OpCreate, upstream.OutcomeRateLimited, 429)).
		Times(1)

	_, err := svc.Create(ctx, validInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
