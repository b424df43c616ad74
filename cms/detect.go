package cms

// Detection register block, offsets from the base port. Software looks
// for the card by checking the fixed ID at +4 and by writing a byte to
// +6/+7 and reading it back from +0xA/+0xB.
const (
	detectFirstOffset = 0x4
	detectLastOffset  = 0xF
	detectPortCount   = detectLastOffset - detectFirstOffset + 1

	detectIDOffset = 0x4
	detectIDValue  = 0x7F
	detectUnmapped = 0xFF
)

// detector holds the one-byte identification loopback register. It has no
// timing behaviour and needs no locking beyond the port bus's.
type detector struct {
	reg uint8
}

func newDetector() *detector {
	return &detector{reg: 0xFF}
}

// read handles a read at offset from the base port.
func (d *detector) read(offset uint16) uint8 {
	switch offset {
	case detectIDOffset:
		return detectIDValue
	case 0xA, 0xB:
		return d.reg
	default:
		return detectUnmapped
	}
}

// write handles a write at offset from the base port.
func (d *detector) write(offset uint16, v uint8) {
	switch offset {
	case 0x6, 0x7:
		d.reg = v
	}
}
