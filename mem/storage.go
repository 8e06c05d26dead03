// Package mem provides the backing storage for BAR handlers.
package mem

import (
	"encoding/binary"
	"errors"
)

// A Storage keeps the data behind a BAR.
//
// The storage allocates memory in units, similar to pages. Units that are
// never written cost no memory and read back as zero.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the given capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		unitSize: 4096,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the size of the storage in bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) unit(address uint64) ([]byte, error) {
	if address >= s.capacity {
		return nil, errors.New("address beyond storage capacity")
	}

	baseAddr := address - address%s.unitSize
	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit, nil
}

// Read returns n bytes starting at address.
func (s *Storage) Read(address, n uint64) ([]byte, error) {
	res := make([]byte, n)

	offset := uint64(0)
	for offset < n {
		unit, err := s.unit(address + offset)
		if err != nil {
			return nil, err
		}

		inUnit := (address + offset) % s.unitSize
		count := s.unitSize - inUnit
		if count > n-offset {
			count = n - offset
		}

		copy(res[offset:offset+count], unit[inUnit:inUnit+count])
		offset += count
	}

	return res, nil
}

// Write stores data starting at address.
func (s *Storage) Write(address uint64, data []byte) error {
	offset := uint64(0)
	for offset < uint64(len(data)) {
		unit, err := s.unit(address + offset)
		if err != nil {
			return err
		}

		inUnit := (address + offset) % s.unitSize
		count := s.unitSize - inUnit
		if count > uint64(len(data))-offset {
			count = uint64(len(data)) - offset
		}

		copy(unit[inUnit:inUnit+count], data[offset:offset+count])
		offset += count
	}

	return nil
}

// ReadDword returns the dword at the given dword-aligned address. The byte
// at the lowest address maps to the least significant bits.
func (s *Storage) ReadDword(address uint64) (uint32, error) {
	data, err := s.Read(address, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(data), nil
}

// WriteDword stores a dword at the given dword-aligned address.
func (s *Storage) WriteDword(address uint64, value uint32) error {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], value)

	return s.Write(address, data[:])
}

// WriteDwordMasked stores the bytes of a dword selected by the byte-enable
// nibble. Bit k of the nibble gates the byte at address+k.
func (s *Storage) WriteDwordMasked(
	address uint64,
	value uint32,
	byteEnable uint8,
) error {
	if byteEnable == 0xf {
		return s.WriteDword(address, value)
	}

	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], value)

	for k := 0; k < 4; k++ {
		if byteEnable&(1<<k) == 0 {
			continue
		}

		err := s.Write(address+uint64(k), data[k:k+1])
		if err != nil {
			return err
		}
	}

	return nil
}
