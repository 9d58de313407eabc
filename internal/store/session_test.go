package store_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"doorway/internal/store"
)

var _ = Describe("Session history", func() {
	var db *store.Store

	BeforeEach(func() {
		var err error
		db, err = store.New(":memory:", true)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		db.Close()
	})

	record := func(alias, protocol string, started time.Time) {
		Expect(db.RecordSession(&store.SessionRecord{
			Node:       1,
			Alias:      alias,
			Protocol:   protocol,
			StartedAt:  started,
			EndedAt:    started.Add(10 * time.Minute),
			ExitReason: "time up",
		})).To(Succeed())
	}

	It("stores and retrieves sessions newest first", func() {
		base := time.Date(2004, 6, 1, 20, 0, 0, 0, time.UTC)
		record("alice", "telnet", base)
		record("bob", "websocket", base.Add(time.Hour))

		recs, err := db.RecentSessions(10)
		Expect(err).NotTo(HaveOccurred())
		Expect(recs).To(HaveLen(2))
		Expect(recs[0].Alias).To(Equal("bob"))
		Expect(recs[0].Duration()).To(Equal(10 * time.Minute))
	})

	It("counts sessions per protocol", func() {
		base := time.Date(2004, 6, 1, 20, 0, 0, 0, time.UTC)
		record("alice", "telnet", base)
		record("bob", "telnet", base)
		record("eve", "rlogin", base)

		counts, err := db.SessionsByProtocol()
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(HaveKeyWithValue("telnet", int64(2)))
		Expect(counts).To(HaveKeyWithValue("rlogin", int64(1)))
	})
})
