package slurm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errInvalidNodeList = errors.New("invalid SLURM nodelist")

// ExpandNodeList expands a compressed SLURM nodelist into hostnames,
// e.g. `trn1-[1-3,9],head` -> [trn1-1 trn1-2 trn1-3 trn1-9 head].
// Zero-padded ranges keep their width: `node[01-03]` -> node01 node02 node03.
func ExpandNodeList(list string) ([]string, error) {
	var hosts []string
	for _, member := range splitMembers(list) {
		if len(member) == 0 {
			return nil, errInvalidNodeList
		}
		expanded, err := expandMember(member)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, expanded...)
	}
	if len(hosts) == 0 {
		return nil, errInvalidNodeList
	}
	return hosts, nil
}

// splitMembers splits on commas that are not inside brackets.
func splitMembers(list string) []string {
	var members []string
	var depth int
	var buf strings.Builder
	for _, r := range list {
		switch {
		case r == '[':
			depth++
			buf.WriteRune(r)
		case r == ']':
			depth--
			buf.WriteRune(r)
		case r == ',' && depth == 0:
			members = append(members, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	members = append(members, buf.String())
	return members
}

// expandMember expands every bracket group in the member, left to right,
// so `a[1-2]b[3-4]` yields the full cross product.
func expandMember(member string) ([]string, error) {
	open := strings.Index(member, "[")
	if open < 0 {
		if strings.Contains(member, "]") {
			return nil, errInvalidNodeList
		}
		return []string{member}, nil
	}
	end := strings.Index(member, "]")
	if end < open {
		return nil, errInvalidNodeList
	}
	prefix, body := member[:open], member[open+1:end]
	suffixes, err := expandMember(member[end+1:])
	if err != nil {
		return nil, err
	}
	var hosts []string
	for _, part := range strings.Split(body, ",") {
		nums, err := expandRange(part)
		if err != nil {
			return nil, err
		}
		for _, n := range nums {
			for _, suffix := range suffixes {
				hosts = append(hosts, prefix+n+suffix)
			}
		}
	}
	return hosts, nil
}

func expandRange(part string) ([]string, error) {
	bounds := strings.SplitN(part, "-", 2)
	lo, err := strconv.Atoi(bounds[0])
	if err != nil {
		return nil, fmt.Errorf("%v: %q", errInvalidNodeList, part)
	}
	hi := lo
	if len(bounds) == 2 {
		if hi, err = strconv.Atoi(bounds[1]); err != nil {
			return nil, fmt.Errorf("%v: %q", errInvalidNodeList, part)
		}
	}
	if hi < lo {
		return nil, fmt.Errorf("%v: empty range %q", errInvalidNodeList, part)
	}
	width := len(bounds[0])
	var nums []string
	for i := lo; i <= hi; i++ {
		nums = append(nums, fmt.Sprintf("%0*d", width, i))
	}
	return nums, nil
}
