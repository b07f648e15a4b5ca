// Package inventory maintains a persistent per-MAC device registry built
// from observed traffic.
package inventory

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/dhcpwatch/dhcpwatch/internal/dhcp"
)

var bucketDevices = []byte("devices")

// Device is one known client, keyed by MAC.
type Device struct {
	MACAddress   string  `json:"mac_address"`
	FirstSeen    string  `json:"first_seen"`
	LastSeen     string  `json:"last_seen"`
	RequestCount uint64  `json:"request_count"`
	LastIP       string  `json:"last_ip"`
	Hostname     string  `json:"hostname,omitempty"`
	OSName       *string `json:"os_name,omitempty"`
	DeviceClass  *string `json:"device_class,omitempty"`
}

// Store is a BoltDB-backed registry with a write-through in-memory cache
// for O(1) reads.
type Store struct {
	db    *bolt.DB
	mu    sync.RWMutex
	byMAC map[string]*Device
}

// Open opens or creates the inventory database and loads existing devices
// into memory.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening inventory database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDevices)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing inventory bucket: %w", err)
	}

	s := &Store{db: db, byMAC: make(map[string]*Device)}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading inventory: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) loadAll() error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevices)
		return b.ForEach(func(k, v []byte) error {
			d := &Device{}
			if err := json.Unmarshal(v, d); err != nil {
				return fmt.Errorf("unmarshalling device %s: %w", k, err)
			}
			s.byMAC[d.MACAddress] = d
			return nil
		})
	})
}

// Record updates the registry from one observed request. Requests without a
// MAC address are ignored.
func (s *Store) Record(req *dhcp.Request) error {
	if req.MACAddress == "" {
		return nil
	}

	s.mu.Lock()
	d, ok := s.byMAC[req.MACAddress]
	if !ok {
		d = &Device{
			MACAddress: req.MACAddress,
			FirstSeen:  req.Timestamp,
		}
		s.byMAC[req.MACAddress] = d
	}
	d.LastSeen = req.Timestamp
	d.RequestCount++
	if req.SourceIP != "" && req.SourceIP != "0.0.0.0" {
		d.LastIP = req.SourceIP
	}
	if req.Hostname != "" {
		d.Hostname = req.Hostname
	}
	if req.OSName != nil {
		d.OSName = req.OSName
	}
	if req.DeviceClass != nil {
		d.DeviceClass = req.DeviceClass
	}
	snapshot := *d
	s.mu.Unlock()

	data, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("marshalling device %s: %w", req.MACAddress, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDevices).Put([]byte(req.MACAddress), data)
	})
}

// Get returns the device for mac, or nil when unknown.
func (s *Store) Get(mac string) *Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byMAC[mac]
	if !ok {
		return nil
	}
	clone := *d
	return &clone
}

// All returns every known device sorted by MAC address.
func (s *Store) All() []*Device {
	s.mu.RLock()
	devices := make([]*Device, 0, len(s.byMAC))
	for _, d := range s.byMAC {
		clone := *d
		devices = append(devices, &clone)
	}
	s.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].MACAddress < devices[j].MACAddress
	})
	return devices
}

// Count returns the number of known devices.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byMAC)
}
