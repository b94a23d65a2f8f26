package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const reservedPortsPath = `/proc/sys/net/ipv4/ip_local_reserved_ports`

// ReserveLocalPort adds port to the kernel's reserved ephemeral port set
// so that no worker steals the rendezvous port. Requires root; the
// resulting EACCES is returned as-is so the caller can fail the run.
func ReserveLocalPort(port uint16) error {
	current, err := os.ReadFile(reservedPortsPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", reservedPortsPath, err)
	}
	updated, changed := appendReservedPort(strings.TrimSpace(string(current)), port)
	if !changed {
		return nil
	}
	if err := os.WriteFile(reservedPortsPath, []byte(updated+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to reserve port %d (need root): %v", port, err)
	}
	return nil
}

// appendReservedPort merges port into the kernel's comma separated
// port/range list, preserving existing entries.
func appendReservedPort(current string, port uint16) (string, bool) {
	if portReserved(current, port) {
		return current, false
	}
	if len(current) == 0 {
		return strconv.Itoa(int(port)), true
	}
	return current + "," + strconv.Itoa(int(port)), true
}

func portReserved(current string, port uint16) bool {
	p := int(port)
	for _, entry := range strings.Split(current, ",") {
		entry = strings.TrimSpace(entry)
		if len(entry) == 0 {
			continue
		}
		bounds := strings.SplitN(entry, "-", 2)
		lo, err := strconv.Atoi(bounds[0])
		if err != nil {
			continue
		}
		hi := lo
		if len(bounds) == 2 {
			if hi, err = strconv.Atoi(bounds[1]); err != nil {
				continue
			}
		}
		if lo <= p && p <= hi {
			return true
		}
	}
	return false
}
