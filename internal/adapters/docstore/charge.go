package docstore

const (
	readUnitsPerKiB  = 1
	writeUnitsPerKiB = 5
	deleteUnits      = 5
	metadataUnits    = 1
)

// readCharge prices a read by the size of what it returned.
func readCharge(bodies ...[]byte) float64 {
	total := 0
	for _, b := range bodies {
		total += len(b)
	}
	return float64(readUnitsPerKiB * kib(total))
}

func writeCharge(body []byte) float64 {
	return float64(writeUnitsPerKiB * kib(len(body)))
}

// kib counts started KiB, never less than one.
func kib(n int) int {
	k := (n + 1023) / 1024
	if k < 1 {
		return 1
	}
	return k
}
