package network_test

import (
	"net"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"doorway/network"
)

func wsConn(version int) (*network.Conn, *network.WebSocketFramer, net.Conn) {
	serverConn, clientConn := net.Pipe()
	framer := network.NewWebSocketFramer(false, nil)
	framer.Version = version
	conn := network.NewConn(network.Wrap(serverConn), framer, nil)
	Expect(conn.Open()).To(Succeed())
	return conn, framer, clientConn
}

var _ = Describe("WebSocketFramer", func() {
	Describe("opening handshake", func() {
		It("answers a v13 upgrade with the computed accept key", func() {
			serverConn, clientConn := net.Pipe()
			defer clientConn.Close()
			framer := network.NewWebSocketFramer(true, nil)
			conn := network.NewConn(network.Wrap(serverConn), framer, nil)
			defer conn.Close()

			request := "GET /d HTTP/1.1\r\n" +
				"Host: x\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
				"Sec-WebSocket-Version: 13\r\n" +
				"Origin: http://x\r\n" +
				"\r\n"
			cl := startClient(clientConn, []byte(request))

			Expect(conn.Open()).To(Succeed())
			Expect(framer.HandshakeComplete()).To(BeTrue())
			Expect(framer.Version).To(Equal(13))

			response := string(cl.received(1))
			for !strings.Contains(response, "\r\n\r\n") {
				more := cl.received(1)
				if len(more) == 0 {
					break
				}
				response += string(more)
			}
			Expect(response).To(HavePrefix("HTTP/1.1 101 Switching Protocols\r\n"))
			Expect(response).To(ContainSubstring("Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n"))
		})

		It("fails a v13 upgrade that is missing the key", func() {
			serverConn, clientConn := net.Pipe()
			defer clientConn.Close()
			framer := network.NewWebSocketFramer(true, nil)
			conn := network.NewConn(network.Wrap(serverConn), framer, nil)

			request := "GET /d HTTP/1.1\r\n" +
				"Host: x\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Version: 13\r\n" +
				"Origin: http://x\r\n" +
				"\r\n"
			startClient(clientConn, []byte(request))

			err := conn.Open()
			Expect(err).To(HaveOccurred())
			var hs *network.HandshakeError
			Expect(err).To(BeAssignableToTypeOf(hs))
			Expect(conn.Connected()).To(BeFalse())
		})

		It("rejects unknown protocol versions", func() {
			serverConn, clientConn := net.Pipe()
			defer clientConn.Close()
			framer := network.NewWebSocketFramer(true, nil)
			conn := network.NewConn(network.Wrap(serverConn), framer, nil)

			request := "GET /d HTTP/1.1\r\n" +
				"Host: x\r\n" +
				"Upgrade: websocket\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
				"Sec-WebSocket-Version: 9\r\n" +
				"Origin: http://x\r\n" +
				"\r\n"
			startClient(clientConn, []byte(request))

			Expect(conn.Open()).To(HaveOccurred())
		})

		It("completes the draft-76 example handshake", func() {
			serverConn, clientConn := net.Pipe()
			defer clientConn.Close()
			framer := network.NewWebSocketFramer(true, nil)
			conn := network.NewConn(network.Wrap(serverConn), framer, nil)
			defer conn.Close()

			request := "GET /demo HTTP/1.1\r\n" +
				"Host: example.com\r\n" +
				"Connection: Upgrade\r\n" +
				"Sec-WebSocket-Key2: 12998 5 Y3 1  .P00\r\n" +
				"Sec-WebSocket-Protocol: sample\r\n" +
				"Upgrade: WebSocket\r\n" +
				"Sec-WebSocket-Key1: 4 @1  46546xW%0l 1 5\r\n" +
				"Origin: http://example.com\r\n" +
				"\r\n" +
				"^n:ds[4U"
			cl := startClient(clientConn, []byte(request))

			Expect(conn.Open()).To(Succeed())
			Expect(framer.Version).To(Equal(0))

			var response []byte
			for !strings.Contains(string(response), "\r\n\r\n") ||
				len(response)-strings.Index(string(response), "\r\n\r\n")-4 < 16 {
				more := cl.received(1)
				if len(more) == 0 {
					break
				}
				response = append(response, more...)
			}
			head, body, _ := strings.Cut(string(response), "\r\n\r\n")
			Expect(head).To(HavePrefix("HTTP/1.1 101 WebSocket Protocol Handshake"))
			Expect(head).To(ContainSubstring("Sec-WebSocket-Location: ws://example.com/demo"))
			Expect(body).To(Equal("8jKS'y:G*Co,Wxa-"))
		})
	})

	Describe("draft-0 key arithmetic", func() {
		It("divides the concatenated digits by the space count", func() {
			Expect(network.HixieKeyNumber("4 @1  46546xW%0l 1 5")).To(Equal(uint32(829309203)))
			Expect(network.HixieKeyNumber("12998 5 Y3 1  .P00")).To(Equal(uint32(259970620)))
		})

		It("rejects keys without spaces", func() {
			_, err := network.HixieKeyNumber("12345")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("v13 frame codec", func() {
		It("decodes a masked text frame", func() {
			conn, _, clientConn := wsConn(13)
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte{
				0x81, 0x85, 0x37, 0xFA, 0x21, 0x3D,
				0x7F, 0x9F, 0x4D, 0x51, 0x58,
			})
			Expect(conn.ReadBytes(500)).To(Equal([]byte("Hello")))
		})

		It("decodes the same frame split across recv boundaries", func() {
			conn, _, clientConn := wsConn(13)
			defer conn.Close()
			defer clientConn.Close()

			frame := []byte{
				0x81, 0x85, 0x37, 0xFA, 0x21, 0x3D,
				0x7F, 0x9F, 0x4D, 0x51, 0x58,
			}
			go func() {
				defer GinkgoRecover()
				// Split after the opcode, mid-mask and mid-payload.
				clientConn.Write(frame[:1])
				clientConn.Write(frame[1:4])
				clientConn.Write(frame[4:8])
				clientConn.Write(frame[8:])
			}()

			var app []byte
			for len(app) < 5 {
				b, ok := conn.ReadByte(500)
				Expect(ok).To(BeTrue())
				app = append(app, b)
			}
			Expect(app).To(Equal([]byte("Hello")))
		})

		It("encodes a short text frame with no mask", func() {
			conn, _, clientConn := wsConn(13)
			defer conn.Close()
			defer clientConn.Close()

			cl := startClient(clientConn, nil)
			Expect(conn.Write([]byte("Hi"))).To(Succeed())
			Expect(cl.received(4)).To(Equal([]byte{0x81, 0x02, 0x48, 0x69}))
		})

		It("collapses multi-byte UTF-8 to single low bytes", func() {
			conn, _, clientConn := wsConn(13)
			defer conn.Close()
			defer clientConn.Close()

			// Payload C3 A9 (U+00E9) masked with zero key.
			startClient(clientConn, []byte{
				0x81, 0x82, 0x00, 0x00, 0x00, 0x00,
				0xC3, 0xA9,
			})
			Expect(conn.ReadBytes(500)).To(Equal([]byte{0xE9}))
		})

		It("answers ping with a pong carrying the payload", func() {
			conn, _, clientConn := wsConn(13)
			defer conn.Close()
			defer clientConn.Close()

			// Masked ping "ok" with zero key, then a text frame so the
			// reader has something to return.
			script := []byte{
				0x89, 0x82, 0x00, 0x00, 0x00, 0x00, 'o', 'k',
				0x81, 0x81, 0x00, 0x00, 0x00, 0x00, 'x',
			}
			cl := startClient(clientConn, script)

			Expect(conn.ReadBytes(500)).To(Equal([]byte("x")))
			Expect(cl.received(4)).To(Equal([]byte{0x8A, 0x02, 'o', 'k'}))
		})

		It("treats a close frame as a peer disconnect", func() {
			conn, _, clientConn := wsConn(13)
			defer clientConn.Close()

			startClient(clientConn, []byte{0x88, 0x80, 0x00, 0x00, 0x00, 0x00})

			_, ok := conn.ReadByte(500)
			Expect(ok).To(BeFalse())
			Expect(conn.Connected()).To(BeFalse())
		})

		It("drops the connection on an unmasked client frame", func() {
			conn, _, clientConn := wsConn(13)
			defer clientConn.Close()

			startClient(clientConn, []byte{0x81, 0x02, 'H', 'i'})

			_, ok := conn.ReadByte(500)
			Expect(ok).To(BeFalse())
			Expect(conn.Connected()).To(BeFalse())
		})

		It("round-trips application bytes through encode and decode", func() {
			payload := []byte{0x00, 'A', 0x7F, 0x80, 0xB3, 0xFF}

			out := &network.ByteQueue{}
			network.NewWebSocketFramer(false, nil).Outbound(out, payload)
			wire := out.Bytes()

			// Mask the server frame by hand so the decoder accepts it.
			mask := []byte{0x11, 0x22, 0x33, 0x44}
			framed := []byte{wire[0], wire[1] | 0x80}
			framed = append(framed, mask...)
			for i, b := range wire[2:] {
				framed = append(framed, b^mask[i%4])
			}

			conn, _, clientConn := wsConn(13)
			defer conn.Close()
			defer clientConn.Close()
			startClient(clientConn, framed)

			var app []byte
			for len(app) < len(payload) {
				b, ok := conn.ReadByte(500)
				Expect(ok).To(BeTrue())
				app = append(app, b)
			}
			Expect(app).To(Equal(payload))
		})
	})

	Describe("draft-0 frame codec", func() {
		It("streams bytes between 0x00 and 0xFF sentinels", func() {
			conn, _, clientConn := wsConn(0)
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, append(append([]byte{0x00}, []byte("Hey")...), 0xFF))
			Expect(conn.ReadBytes(500)).To(Equal([]byte("Hey")))
		})

		It("collapses tunneled high bytes", func() {
			conn, _, clientConn := wsConn(0)
			defer conn.Close()
			defer clientConn.Close()

			startClient(clientConn, []byte{0x00, 0xC3, 0xA9, 0xFF})
			Expect(conn.ReadBytes(500)).To(Equal([]byte{0xE9}))
		})

		It("encodes with sentinels and UTF-8 expansion", func() {
			conn, _, clientConn := wsConn(0)
			defer conn.Close()
			defer clientConn.Close()

			cl := startClient(clientConn, nil)
			Expect(conn.Write([]byte{0xE9})).To(Succeed())
			Expect(cl.received(4)).To(Equal([]byte{0x00, 0xC3, 0xA9, 0xFF}))
		})
	})
})
