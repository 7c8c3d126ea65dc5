package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is how many messages may wait for a slow peer before it
// is dropped.
const DefaultQueueSize = 64

// Hub forwards every message it receives from one peer to all other
// connected peers. It keeps no state beyond the set of open connections and
// never modifies a payload.
type Hub struct {
	log       *logrus.Entry
	upgrader  websocket.Upgrader
	queueSize int

	mu     sync.Mutex
	peers  map[*peer]struct{}
	nextID uint64

	peerGauge prometheus.Gauge
	forwarded prometheus.Counter
	dropped   prometheus.Counter
}

// frame is one websocket data message, forwarded with its original type.
type frame struct {
	msgType int
	data    []byte
}

type peer struct {
	id   uint64
	conn *websocket.Conn
	send chan frame
	once sync.Once
}

// NewHub creates a hub. Metrics are registered with reg when it is not nil.
func NewHub(log *logrus.Entry, reg prometheus.Registerer) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	h := &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			// Peers are nodes, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		queueSize: DefaultQueueSize,
		peers:     make(map[*peer]struct{}),
		peerGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay",
			Name:      "peers",
			Help:      "Number of connected peers.",
		}),
		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "messages_forwarded_total",
			Help:      "Messages delivered to a peer queue.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "peers_dropped_total",
			Help:      "Peers disconnected because their queue was full.",
		}),
	}

	if reg != nil {
		reg.MustRegister(h.peerGauge, h.forwarded, h.dropped)
	}
	return h
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// ServeHTTP upgrades the request to a websocket and relays its messages
// until the connection fails.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("Upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	p := h.register(conn)
	log := h.log.WithField("peer", p.id)
	log.Infof("Peer connected from %s", r.RemoteAddr)

	go h.writeLoop(p)
	defer func() {
		h.unregister(p)
		log.Info("Peer disconnected")
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.TextMessage && log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			var head struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(data, &head) == nil {
				log.Debugf("Relaying %s", head.Type)
			}
		}

		h.broadcast(p, frame{msgType: msgType, data: data})
	}
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		h.unregister(p)
	}
}

func (h *Hub) register(conn *websocket.Conn) *peer {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	p := &peer{
		id:   h.nextID,
		conn: conn,
		send: make(chan frame, h.queueSize),
	}
	h.peers[p] = struct{}{}
	h.peerGauge.Set(float64(len(h.peers)))
	return p
}

// unregister removes p and closes its queue, which ends its write loop.
// It is safe to call more than once.
func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.peerGauge.Set(float64(len(h.peers)))
	h.mu.Unlock()

	p.once.Do(func() {
		close(p.send)
	})
}

func (h *Hub) broadcast(from *peer, f frame) {
	h.mu.Lock()
	var slow []*peer
	for p := range h.peers {
		if p == from {
			continue
		}
		select {
		case p.send <- f:
			h.forwarded.Inc()
		default:
			slow = append(slow, p)
		}
	}
	h.mu.Unlock()

	for _, p := range slow {
		h.log.WithField("peer", p.id).Warn("Peer queue full, dropping peer")
		h.dropped.Inc()
		h.unregister(p)
	}
}

func (h *Hub) writeLoop(p *peer) {
	defer p.conn.Close()

	for f := range p.send {
		if err := p.conn.WriteMessage(f.msgType, f.data); err != nil {
			h.log.WithField("peer", p.id).Debugf("Write failed: %v", err)
			h.unregister(p)
			return
		}
	}
}
