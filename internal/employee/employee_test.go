package employee_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/frahmantamala/employee-records/internal/core/events"
	"github.com/frahmantamala/employee-records/internal/employee"
	"github.com/frahmantamala/employee-records/internal/metrics"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("Employee", func() {
	var e *employee.Employee

	BeforeEach(func() {
		e = &employee.Employee{
			ID:         12,
			FirstName:  "Ana",
			LastName:   "Ruiz",
			Email:      "ana@x.com",
			Phone:      "555-1234",
			Department: "Finance",
		}
	})

	DescribeTable("Matches",
		func(term string, expected bool) {
			Expect(e.Matches(term)).To(Equal(expected))
		},
		Entry("empty term", "", true),
		Entry("first name, other case", "aNA", true),
		Entry("last name", "ruiz", true),
		Entry("email domain", "x.com", true),
		Entry("phone fragment", "1234", true),
		Entry("department", "fin", true),
		Entry("id", "12", true),
		Entry("no field contains it", "marketing", false),
	)

	It("should report changed fields on update", func() {
		hr := "HR"
		same := "Ana"
		changed := e.ApplyUpdate(&employee.UpdateEmployeeDTO{Department: &hr, FirstName: &same})
		Expect(changed).To(Equal([]string{"department"}))
		Expect(e.Department).To(Equal("HR"))
	})

	It("should round trip through the data model", func() {
		Expect(employee.FromDataModel(employee.ToDataModel(e))).To(Equal(e))
	})

	It("should join the full name", func() {
		Expect(e.FullName()).To(Equal("Ana Ruiz"))
	})

	Describe("UpdateEmployeeDTO", func() {
		It("should validate only supplied fields", func() {
			bad := "nope"
			Expect(employee.UpdateEmployeeDTO{}.Validate()).To(Succeed())
			Expect(employee.UpdateEmployeeDTO{Email: &bad}.Validate()).To(HaveOccurred())
		})
	})
})

var _ = Describe("AuditSubscriber", func() {
	It("should count every employee event it receives", func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewMetricsWithRegisterer(reg)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		bus := events.NewEventBus(logger)
		employee.NewAuditSubscriber(logger, m).Register(bus)

		ctx := context.Background()
		Expect(bus.PublishSync(ctx, events.NewEmployeeCreatedEvent(1, "IT"))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewEmployeeUpdatedEvent(1, "HR", []string{"department"}))).To(Succeed())
		Expect(bus.Publish(ctx, events.NewEmployeeDeletedEvent(1))).To(Succeed())
		bus.Wait()

		Expect(testutil.ToFloat64(m.EventsPublished.WithLabelValues(events.EventTypeEmployeeCreated))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.EventsPublished.WithLabelValues(events.EventTypeEmployeeUpdated))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.EventsPublished.WithLabelValues(events.EventTypeEmployeeDeleted))).To(Equal(1.0))
	})
})
