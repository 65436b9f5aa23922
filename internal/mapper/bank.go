package mapper

import (
	"fmt"

	"github.com/retroenv/addrmap/internal/addrmap"
)

const (
	singleBankName        = "CODE"
	multiBankNameTemplate = "PRG_BANK_%d"
)

// Bank is a span of the cartridge image that is mapped as one unit.
type Bank struct {
	Name    string
	Offset  int
	Length  int
	Address int // addrmap.NonAddr for data that is not visible to the CPU
}

// Entry returns the address map entry for the bank.
func (b Bank) Entry() addrmap.Entry {
	return addrmap.Entry{
		Offset:  b.Offset,
		Length:  b.Length,
		Address: b.Address,
	}
}

// prgBanks splits the PRG data into bank windows. A PRG that fits into the
// 32K window is mapped as a single bank that ends at $FFFF, larger PRGs are
// split into 16K banks that are mapped at $8000 with the last bank fixed at
// $C000.
func prgBanks(offset, size int) ([]Bank, error) {
	if size <= prgWindowSize {
		return []Bank{{
			Name:    singleBankName,
			Offset:  offset,
			Length:  size,
			Address: addressSpaceEnd - size,
		}}, nil
	}

	if size%bankWindowSize != 0 {
		return nil, fmt.Errorf("invalid bank alignment for PRG size %d", size)
	}

	count := size / bankWindowSize
	banks := make([]Bank, 0, count)
	for i := range count {
		address := switchableBankAddress
		if i == count-1 {
			address = fixedBankAddress
		}

		banks = append(banks, Bank{
			Name:    fmt.Sprintf(multiBankNameTemplate, i),
			Offset:  offset + i*bankWindowSize,
			Length:  bankWindowSize,
			Address: address,
		})
	}
	return banks, nil
}
