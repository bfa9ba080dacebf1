package sourcemap

import (
	"fmt"
	"strings"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
)

func writeVLQ(b *strings.Builder, value int) {
	var vlq int
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}
	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift
		if vlq > 0 {
			digit |= vlqContinuationBit
		}
		b.WriteByte(base64Chars[digit])
		if vlq == 0 {
			return
		}
	}
}

// DecodeVLQ decodes a single segment into its integer fields.
func DecodeVLQ(segment string) ([]int, error) {
	var (
		values []int
		shift  uint
		value  int
	)
	for i := 0; i < len(segment); i++ {
		digit := strings.IndexByte(base64Chars, segment[i])
		if digit < 0 {
			return nil, fmt.Errorf("invalid base64 character %q in segment %q", segment[i], segment)
		}
		value += (digit & vlqBaseMask) << shift
		if digit&vlqContinuationBit != 0 {
			shift += vlqBaseShift
			continue
		}
		negative := value&1 == 1
		value >>= 1
		if negative {
			value = -value
		}
		values = append(values, value)
		value, shift = 0, 0
	}
	if shift != 0 {
		return nil, fmt.Errorf("truncated segment %q", segment)
	}
	return values, nil
}
