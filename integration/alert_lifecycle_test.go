package integration

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sentinel-go/internal/channel"
	"sentinel-go/internal/domain"
	"sentinel-go/internal/evaluator"
	"sentinel-go/internal/history"
	"sentinel-go/internal/metricsource"
	"sentinel-go/internal/monitor"
	memoryqueue "sentinel-go/internal/queue/memory"
	memorystor "sentinel-go/internal/store/memory"
)

// capturingChannel records deliveries for assertions.
type capturingChannel struct {
	mu    sync.Mutex
	alerts []domain.TriggeredAlert
}

func (c *capturingChannel) Name() string { return "capture" }

func (c *capturingChannel) Send(ctx context.Context, alert domain.TriggeredAlert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return nil
}

func (c *capturingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

var _ = Describe("Alert Lifecycle", func() {
	var (
		mock     *clock.Mock
		source   *metricsource.Static
		manager  *monitor.Manager
		notified *capturingChannel
		archive  *memorystor.ArchiveRepository
		snaps    *memorystor.SnapshotStore
		ctx      context.Context
	)

	queueRule := domain.AlertRule{
		ID:         "queue_size_high",
		Name:       "Queue backlog high",
		MetricName: "mobigen_queue_size",
		Condition:  domain.ConditionGT,
		Threshold:  100,
		Severity:   domain.SeverityWarning,
	}

	pushQueueDepth := func(depth float64) {
		source.Set("mobigen_queue_size", []domain.MetricSample{
			{Value: depth, Timestamp: mock.Now().UnixMilli()},
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		mock = clock.NewMock()
		source = metricsource.NewStatic()
		notified = &capturingChannel{}
		archive = memorystor.NewArchiveRepository()
		snaps = memorystor.NewSnapshotStore()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		manager = monitor.NewManager(monitor.Deps{
			Source:    source,
			Evaluator: evaluator.New(mock, logger),
			History:   history.New(mock),
			Producer:  memoryqueue.NewQueue(100),
			Snapshots: snaps,
			Archive:   archive,
			Clock:     mock,
			Logger:    logger,
		}, monitor.Options{
			Retention: 24 * time.Hour,
		})
		manager.AddChannel(notified)
		Expect(manager.AddRule(queueRule)).To(Succeed())
	})

	It("walks an alert from trigger through resolution and archival", func() {
		// A breaching snapshot triggers the rule.
		pushQueueDepth(250)
		triggered, err := manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(triggered).To(HaveLen(1))
		Expect(notified.count()).To(Equal(1))

		id := triggered[0].ID
		entry := manager.GetAlert(id)
		Expect(entry).NotTo(BeNil())
		Expect(entry.Status).To(Equal(domain.StatusActive))
		Expect(manager.GetActiveAlerts()).To(HaveLen(1))

		// Acknowledge, then resolve.
		Expect(manager.Acknowledge(ctx, id, "oncall", "draining queue")).To(BeTrue())
		Expect(manager.GetAlert(id).Status).To(Equal(domain.StatusAcknowledged))

		Expect(manager.Resolve(ctx, id, "backlog drained")).To(BeTrue())
		Expect(manager.GetAlert(id).Status).To(Equal(domain.StatusResolved))
		Expect(manager.Resolve(ctx, id, "again")).To(BeFalse())

		// Two days later a healthy cycle runs and retention cleanup fires.
		mock.Add(48 * time.Hour)
		pushQueueDepth(5)
		_, err = manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())
		manager.RunCleanup(ctx)

		Expect(manager.GetAlert(id)).To(BeNil())
		archived, err := archive.List(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(archived).To(HaveLen(1))
		Expect(archived[0].Alert.ID).To(Equal(id))
		Expect(archived[0].Resolution).To(Equal("backlog drained"))
	})

	It("suppresses a snoozed alert and wakes it after the deadline", func() {
		pushQueueDepth(250)
		triggered, err := manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())
		id := triggered[0].ID

		Expect(manager.Snooze(ctx, id, 10*time.Minute, "oncall")).To(BeTrue())
		Expect(manager.GetActiveAlerts()).To(BeEmpty())

		// Five minutes in, the snooze is still in force.
		mock.Add(5 * time.Minute)
		pushQueueDepth(250)
		_, err = manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(manager.GetAlert(id).Status).To(Equal(domain.StatusSnoozed))

		// Past the deadline the entry reactivates at the start of the cycle.
		mock.Add(6 * time.Minute)
		pushQueueDepth(250)
		_, err = manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(manager.GetAlert(id).Status).To(Equal(domain.StatusActive))
	})

	It("restores history from a snapshot after a restart", func() {
		pushQueueDepth(250)
		triggered, err := manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())
		id := triggered[0].ID
		Expect(manager.Acknowledge(ctx, id, "oncall", "")).To(BeTrue())

		// A later cycle persists the acknowledged state.
		pushQueueDepth(5)
		_, err = manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())

		// A fresh manager against the same snapshot store picks it up.
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		restarted := monitor.NewManager(monitor.Deps{
			Source:    source,
			Evaluator: evaluator.New(mock, logger),
			History:   history.New(mock),
			Snapshots: snaps,
			Clock:     mock,
			Logger:    logger,
		}, monitor.Options{})

		Expect(restarted.RestoreHistory(ctx)).To(Succeed())
		entry := restarted.GetAlert(id)
		Expect(entry).NotTo(BeNil())
		Expect(entry.Status).To(Equal(domain.StatusAcknowledged))
		Expect(entry.AcknowledgedBy).To(Equal("oncall"))
	})

	It("keeps quiet while metrics are healthy", func() {
		pushQueueDepth(5)
		triggered, err := manager.ManualCheck(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(triggered).To(BeEmpty())
		Expect(notified.count()).To(BeZero())
		Expect(manager.GetStatistics().Total).To(BeZero())
	})
})

var _ = Describe("Channel capability handling", func() {
	It("treats channels without a Test capability as healthy", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		mock := clock.NewMock()
		manager := monitor.NewManager(monitor.Deps{
			Source:    metricsource.NewStatic(),
			Evaluator: evaluator.New(mock, logger),
			History:   history.New(mock),
			Clock:     mock,
			Logger:    logger,
		}, monitor.Options{})

		manager.AddChannel(&capturingChannel{})
		manager.AddChannel(channel.NewLog(logger))

		results := manager.TestChannels(context.Background())
		Expect(results).To(HaveKeyWithValue("capture", true))
		Expect(results).To(HaveKeyWithValue("log", true))
	})
})
