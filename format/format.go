package format

import "fmt"

const (
	Byte     = 1
	KiloByte = Byte * 1000
	MegaByte = KiloByte * 1000
	GigaByte = MegaByte * 1000
)

// HumanBytes renders a corpus or file size.
func HumanBytes(b int64) string {
	switch {
	case b >= GigaByte:
		return fmt.Sprintf("%s GB", decimalPlace(float64(b)/GigaByte))
	case b >= MegaByte:
		return fmt.Sprintf("%s MB", decimalPlace(float64(b)/MegaByte))
	case b >= KiloByte:
		return fmt.Sprintf("%s KB", decimalPlace(float64(b)/KiloByte))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// HumanNumber renders counts such as pair frequencies and vocabulary sizes.
func HumanNumber(n uint64) string {
	const (
		Thousand = 1000
		Million  = Thousand * 1000
		Billion  = Million * 1000
	)

	switch {
	case n >= Billion:
		return fmt.Sprintf("%sB", decimalPlace(float64(n)/Billion))
	case n >= Million:
		return fmt.Sprintf("%sM", decimalPlace(float64(n)/Million))
	case n >= Thousand:
		return fmt.Sprintf("%sK", decimalPlace(float64(n)/Thousand))
	default:
		return fmt.Sprintf("%d", n)
	}
}

// Ratio renders how many bytes each token stands for on average.
func Ratio(bytes, tokens int) string {
	if tokens == 0 {
		return "-"
	}

	return fmt.Sprintf("%.2fx", float64(bytes)/float64(tokens))
}

func decimalPlace(number float64) string {
	switch {
	case number >= 100:
		return fmt.Sprintf("%.0f", number)
	case number >= 10:
		return fmt.Sprintf("%.1f", number)
	default:
		return fmt.Sprintf("%.2f", number)
	}
}
