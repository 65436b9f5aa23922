// Package mapper generates the default address regions of NES cartridge images.
package mapper

import (
	"errors"

	"github.com/retroenv/addrmap/internal/addrmap"
	"github.com/retroenv/retrogolib/arch/system/nes/cartridge"
	"github.com/samber/lo"
)

const (
	headerSize  = 16
	trainerSize = 512

	trainerAddress        = 0x7000
	switchableBankAddress = 0x8000
	fixedBankAddress      = 0xc000
	addressSpaceEnd       = 0x10000

	bankWindowSize = 0x4000
	prgWindowSize  = 0x8000
)

const (
	headerName  = "HEADER"
	trainerName = "TRAINER"
	chrName     = "CHR"
)

var errNoPRG = errors.New("cartridge has no PRG data")

// Preset returns the banks of an iNES image in file order. The header and
// the CHR data are not addressable, an optional trainer is mapped to $7000.
func Preset(cart *cartridge.Cartridge) ([]Bank, error) {
	if len(cart.PRG) == 0 {
		return nil, errNoPRG
	}

	banks := []Bank{{
		Name:    headerName,
		Offset:  0,
		Length:  headerSize,
		Address: addrmap.NonAddr,
	}}
	offset := headerSize

	if len(cart.Trainer) > 0 {
		banks = append(banks, Bank{
			Name:    trainerName,
			Offset:  offset,
			Length:  trainerSize,
			Address: trainerAddress,
		})
		offset += trainerSize
	}

	prg, err := prgBanks(offset, len(cart.PRG))
	if err != nil {
		return nil, err
	}
	banks = append(banks, prg...)
	offset += len(cart.PRG)

	if len(cart.CHR) > 0 {
		banks = append(banks, Bank{
			Name:    chrName,
			Offset:  offset,
			Length:  len(cart.CHR),
			Address: addrmap.NonAddr,
		})
	}

	return banks, nil
}

// Size returns the number of file bytes that are covered by the banks.
func Size(banks []Bank) int {
	if len(banks) == 0 {
		return 0
	}
	last := banks[len(banks)-1]
	return last.Offset + last.Length
}

// Entries converts the banks to address map entries.
func Entries(banks []Bank) []addrmap.Entry {
	return lo.Map(banks, func(b Bank, _ int) addrmap.Entry {
		return b.Entry()
	})
}
