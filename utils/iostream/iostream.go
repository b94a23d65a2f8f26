package iostream

import (
	"bufio"
	"fmt"
	"io"
)

// Tee copies r line-wise to ws. Write errors on individual sinks are
// ignored so that a dead log file never interrupts the stream to the
// remaining sinks.
func Tee(r io.Reader, ws ...io.Writer) error {
	reader := bufio.NewReader(r)
	for {
		line, _, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		for _, w := range ws {
			fmt.Fprintln(w, string(line))
		}
	}
}
