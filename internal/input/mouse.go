package input

// MouseEvent is a decoded SGR pointer report from the client terminal.
// Coordinates are 0-based screen cells.
type MouseEvent struct {
	Button   int
	Col, Row int
	Press    bool
	Release  bool
	Motion   bool
}

// parseSGRMouse decodes one complete SGR mouse report (ESC [ < b ; x ;
// y M/m) at the start of data. It returns the consumed length; ok is
// false when data holds anything else, including a truncated report.
func parseSGRMouse(data []byte) (MouseEvent, int, bool) {
	if len(data) < 3 || data[0] != 0x1b || data[1] != '[' || data[2] != '<' {
		return MouseEvent{}, 0, false
	}
	var fields [3]int
	field := 0
	i := 3
	for ; i < len(data); i++ {
		b := data[i]
		switch {
		case b >= '0' && b <= '9':
			fields[field] = fields[field]*10 + int(b-'0')
			if fields[field] > 9999 {
				return MouseEvent{}, 0, false
			}
		case b == ';':
			field++
			if field > 2 {
				return MouseEvent{}, 0, false
			}
		case b == 'M' || b == 'm':
			if field != 2 {
				return MouseEvent{}, 0, false
			}
			raw := fields[0]
			motion := raw&32 != 0
			ev := MouseEvent{
				Button:  raw &^ 32,
				Col:     fields[1] - 1,
				Row:     fields[2] - 1,
				Press:   b == 'M' && !motion,
				Release: b == 'm',
				Motion:  motion,
			}
			return ev, i + 1, true
		default:
			return MouseEvent{}, 0, false
		}
	}
	return MouseEvent{}, 0, false
}
