package door_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"doorway/door"
)

var _ = Describe("ParseFlags", func() {
	It("parses the full DOS-style set", func() {
		opts, err := door.ParseFlags([]string{"-D/tmp/door32.sys", "-H1044", "-N3", "-C4"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.DropfilePath).To(Equal("/tmp/door32.sys"))
		Expect(opts.SocketHandle).To(Equal(1044))
		Expect(opts.Node).To(Equal(3))
		Expect(opts.ComType).To(Equal(4))
		Expect(opts.Local).To(BeFalse())
	})

	It("accepts slash prefixes and uppercase keys", func() {
		opts, err := door.ParseFlags([]string{"/L", "/n7"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.Local).To(BeTrue())
		Expect(opts.Node).To(Equal(7))
	})

	It("defaults the numeric options to unset", func() {
		opts, err := door.ParseFlags(nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(opts.SocketHandle).To(Equal(-1))
		Expect(opts.Node).To(Equal(-1))
		Expect(opts.ComType).To(Equal(-1))
	})

	It("hands unknown flags to the callback", func() {
		var unknown []string
		_, err := door.ParseFlags([]string{"-L", "-Zfoo", "bare"}, func(arg string) {
			unknown = append(unknown, arg)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(unknown).To(Equal([]string{"-Zfoo", "bare"}))
	})

	It("rejects garbage numeric values", func() {
		_, err := door.ParseFlags([]string{"-Habc"}, nil)
		Expect(err).To(HaveOccurred())
	})
})
