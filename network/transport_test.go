package network_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"doorway/network"
)

var _ = Describe("Transport", func() {
	It("polls without consuming", func() {
		serverConn, clientConn := net.Pipe()
		defer clientConn.Close()
		t := network.Wrap(serverConn)
		defer t.Close()

		Expect(t.PollReadable(20)).To(BeFalse())

		go clientConn.Write([]byte("abc"))
		Eventually(func() bool { return t.PollReadable(20) }, "1s").Should(BeTrue())

		// The polled bytes are still there for Recv.
		buf := make([]byte, 16)
		n, err := t.Recv(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf[:n]).To(Equal([]byte("abc")))
	})

	It("reports closed after the peer goes away", func() {
		serverConn, clientConn := net.Pipe()
		t := network.Wrap(serverConn)
		defer t.Close()

		clientConn.Close()
		Eventually(func() bool { return t.PollReadable(10) }, "1s").Should(BeTrue())

		buf := make([]byte, 16)
		_, err := t.Recv(buf)
		Expect(err).To(MatchError(network.ErrClosed))
	})

	It("sends a full slice in one call", func() {
		serverConn, clientConn := net.Pipe()
		t := network.Wrap(serverConn)
		defer t.Close()
		defer clientConn.Close()

		payload := make([]byte, 32*1024)
		for i := range payload {
			payload[i] = byte(i)
		}

		done := make(chan []byte, 1)
		go func() {
			defer GinkgoRecover()
			var got []byte
			buf := make([]byte, 4096)
			for len(got) < len(payload) {
				n, err := clientConn.Read(buf)
				if err != nil {
					break
				}
				got = append(got, buf[:n]...)
			}
			done <- got
		}()

		Expect(t.SendAll(payload)).To(Succeed())
		Eventually(done, "2s").Should(Receive(Equal(payload)))
	})

	It("accepts connections through a Listener", func() {
		l, err := network.Listen("127.0.0.1", 0)
		Expect(err).NotTo(HaveOccurred())
		defer l.Close()

		addr := l.Addr().(*net.TCPAddr)
		go func() {
			defer GinkgoRecover()
			c, err := net.Dial("tcp", addr.String())
			Expect(err).NotTo(HaveOccurred())
			c.Write([]byte("ping"))
			time.Sleep(100 * time.Millisecond)
			c.Close()
		}()

		t, err := l.Accept()
		Expect(err).NotTo(HaveOccurred())
		defer t.Close()

		Eventually(func() bool { return t.PollReadable(20) }, "1s").Should(BeTrue())
		buf := make([]byte, 16)
		n, err := t.Recv(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("ping"))
	})
})
