package logic

import (
	"strconv"
	"strings"
)

// Mask is a set of up to eight ids (channels or actuators), bit i = id i.
type Mask uint8

// MaskOf builds a mask from 0-based ids. Ids outside 0..7 are ignored.
func MaskOf(ids ...int) Mask {
	var m Mask
	for _, id := range ids {
		m = m.With(id)
	}
	return m
}

// Has reports whether id is in the mask.
func (m Mask) Has(id int) bool {
	if id < 0 || id >= ChannelCount {
		return false
	}
	return m&(1<<uint(id)) != 0
}

// With returns the mask with id added.
func (m Mask) With(id int) Mask {
	if id < 0 || id >= ChannelCount {
		return m
	}
	return m | 1<<uint(id)
}

// Without returns the mask with id removed.
func (m Mask) Without(id int) Mask {
	if id < 0 || id >= ChannelCount {
		return m
	}
	return m &^ (1 << uint(id))
}

// IDs returns the 0-based ids in ascending order.
func (m Mask) IDs() []int {
	var ids []int
	for i := 0; i < ChannelCount; i++ {
		if m.Has(i) {
			ids = append(ids, i)
		}
	}
	return ids
}

// String renders the 1-based ids, space separated ("1 4 5").
func (m Mask) String() string {
	parts := make([]string, 0, ChannelCount)
	for _, id := range m.IDs() {
		parts = append(parts, strconv.Itoa(id+1))
	}
	return strings.Join(parts, " ")
}
