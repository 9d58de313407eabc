package network_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"doorway/network"
)

func rawConn() (*network.Conn, net.Conn) {
	serverConn, clientConn := net.Pipe()
	conn := network.NewConn(network.Wrap(serverConn), network.RawFramer{}, nil)
	Expect(conn.Open()).To(Succeed())
	return conn, clientConn
}

var _ = Describe("Conn", func() {
	Describe("ReadByte", func() {
		It("times out and reports it", func() {
			conn, clientConn := rawConn()
			defer conn.Close()
			defer clientConn.Close()

			start := time.Now()
			_, ok := conn.ReadByte(50)
			Expect(ok).To(BeFalse())
			Expect(conn.TimedOut()).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically(">=", 50*time.Millisecond))
		})

		It("clears the timeout flag on the next successful read", func() {
			conn, clientConn := rawConn()
			defer conn.Close()
			defer clientConn.Close()

			conn.ReadByte(10)
			Expect(conn.TimedOut()).To(BeTrue())

			startClient(clientConn, []byte("x"))
			b, ok := conn.ReadByte(500)
			Expect(ok).To(BeTrue())
			Expect(b).To(Equal(byte('x')))
			Expect(conn.TimedOut()).To(BeFalse())
		})

		It("returns not-ok once the peer closes", func() {
			conn, clientConn := rawConn()
			defer conn.Close()

			go func() {
				defer GinkgoRecover()
				clientConn.Write([]byte("z"))
				clientConn.Close()
			}()

			b, ok := conn.ReadByte(500)
			Expect(ok).To(BeTrue())
			Expect(b).To(Equal(byte('z')))

			_, ok = conn.ReadByte(500)
			Expect(ok).To(BeFalse())
			Expect(conn.Connected()).To(BeFalse())
			Expect(conn.TimedOut()).To(BeFalse())
		})
	})

	Describe("inbound pre-filtering", func() {
		It("drops LF after CR when stripping is on", func() {
			conn, clientConn := rawConn()
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte("A\r\nB"))

			var app []byte
			for len(app) < 3 {
				b, ok := conn.ReadByte(500)
				Expect(ok).To(BeTrue())
				app = append(app, b)
			}
			Expect(app).To(Equal([]byte{'A', '\r', 'B'}))
		})

		It("drops NUL after CR when stripping is on", func() {
			conn, clientConn := rawConn()
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte("A\r\x00B"))

			var app []byte
			for len(app) < 3 {
				b, ok := conn.ReadByte(500)
				Expect(ok).To(BeTrue())
				app = append(app, b)
			}
			Expect(app).To(Equal([]byte{'A', '\r', 'B'}))
		})

		It("keeps LF after CR when stripping is off", func() {
			serverConn, clientConn := net.Pipe()
			defer clientConn.Close()
			conn := network.NewConn(network.Wrap(serverConn), network.RawFramer{}, nil)
			conn.SetStripLF(false)
			Expect(conn.Open()).To(Succeed())
			defer conn.Close()

			startClient(clientConn, []byte("A\r\nB"))

			var app []byte
			for len(app) < 4 {
				b, ok := conn.ReadByte(500)
				Expect(ok).To(BeTrue())
				app = append(app, b)
			}
			Expect(app).To(Equal([]byte("A\r\nB")))
		})

		It("keeps a bare LF with no preceding CR", func() {
			conn, clientConn := rawConn()
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte("A\nB"))

			var app []byte
			for len(app) < 3 {
				b, ok := conn.ReadByte(500)
				Expect(ok).To(BeTrue())
				app = append(app, b)
			}
			Expect(app).To(Equal([]byte("A\nB")))
		})
	})

	Describe("ReadLine", func() {
		newLineConn := func() (*network.Conn, net.Conn) {
			serverConn, clientConn := net.Pipe()
			conn := network.NewConn(network.Wrap(serverConn), network.RawFramer{}, nil)
			conn.SetStripLF(false)
			Expect(conn.Open()).To(Succeed())
			return conn, clientConn
		}

		It("masks echo and rubs out on backspace", func() {
			conn, clientConn := newLineConn()
			defer conn.Close()
			defer clientConn.Close()

			cl := startClient(clientConn, []byte("ab\x08c\r\n"))

			line := conn.ReadLine("", true, '*', 1000)
			Expect(line).To(Equal("ac"))
			Expect(cl.received(8)).To(Equal([]byte("**\x08 \x08*\r\n")))
		})

		It("echoes literally when no mask is set", func() {
			conn, clientConn := newLineConn()
			defer conn.Close()
			defer clientConn.Close()

			cl := startClient(clientConn, []byte("hi\r\n"))

			line := conn.ReadLine("", true, 0, 1000)
			Expect(line).To(Equal("hi"))
			Expect(cl.received(4)).To(Equal([]byte("hi\r\n")))
		})

		It("accumulates silently when echo is off", func() {
			conn, clientConn := newLineConn()
			defer conn.Close()
			defer clientConn.Close()

			cl := startClient(clientConn, []byte("ab\x08c\r\n"))

			// With echo off nothing is interpreted and nothing is sent.
			line := conn.ReadLine("", false, 0, 1000)
			Expect(line).To(Equal("ab\x08c"))
			Consistently(cl.got, 100*time.Millisecond).ShouldNot(Receive())
		})

		It("supports custom terminators", func() {
			conn, clientConn := newLineConn()
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte("abc;tail"))

			Expect(conn.ReadLine(";", false, 0, 1000)).To(Equal("abc"))
		})

		It("returns the partial accumulator on timeout", func() {
			conn, clientConn := newLineConn()
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte("par"))

			line := conn.ReadLine("", true, 0, 100)
			Expect(line).To(Equal("par"))
			Expect(conn.TimedOut()).To(BeTrue())
		})

		It("never echoes the original bytes with a mask set", func() {
			conn, clientConn := newLineConn()
			defer conn.Close()
			defer clientConn.Close()

			secret := "hunter2\r\n"
			cl := startClient(clientConn, []byte(secret))

			conn.ReadLine("", true, '*', 1000)
			echoed := cl.received(9)
			for _, b := range []byte("hunter2") {
				Expect(echoed).NotTo(ContainElement(b))
			}
		})
	})

	Describe("Write", func() {
		It("flushes the whole framed payload per call", func() {
			conn, clientConn := rawConn()
			defer conn.Close()
			defer clientConn.Close()

			cl := startClient(clientConn, nil)
			Expect(conn.WriteLine("hello")).To(Succeed())
			Expect(cl.received(7)).To(Equal([]byte("hello\r\n")))
		})

		It("is a no-op after disconnect", func() {
			conn, clientConn := rawConn()

			clientConn.Close()
			conn.ReadByte(50)
			Expect(conn.Connected()).To(BeFalse())
			Expect(conn.Write([]byte("lost"))).To(Succeed())
		})
	})

	Describe("CanRead and Peek", func() {
		It("peeks without consuming", func() {
			conn, clientConn := rawConn()
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte("Q"))

			Eventually(conn.CanRead, "1s", "5ms").Should(BeTrue())
			b, ok := conn.Peek()
			Expect(ok).To(BeTrue())
			Expect(b).To(Equal(byte('Q')))

			b, ok = conn.ReadByte(100)
			Expect(ok).To(BeTrue())
			Expect(b).To(Equal(byte('Q')))
		})
	})
})
