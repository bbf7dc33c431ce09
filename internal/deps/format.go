package deps

import "fmt"

const (
	bytesPerMB = 1024 * 1024
	bytesPerGB = 1024 * bytesPerMB
)

// FormatBytes renders a byte count as whole megabytes below one gigabyte and
// as gigabytes with two decimals from there on. Zero is "0 GB".
//
// The cut is 1 GB rather than 0.01 GB so that 500 MB reads "500 MB", not
// "0.49 GB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 GB"
	}
	if n < bytesPerGB {
		return fmt.Sprintf("%.0f MB", float64(n)/bytesPerMB)
	}
	return fmt.Sprintf("%.2f GB", float64(n)/bytesPerGB)
}
