package checkpoint

// readState tracks where the section reader is in a file.
type readState uint8

const (
	stateStart readState = iota
	statePreambleByteOrder
	statePreambleVersion
	stateDispatch
	stateDone
	stateFatal
)

func (s readState) String() string {
	switch s {
	case stateStart:
		return "start"
	case statePreambleByteOrder:
		return "preamble/byte-order"
	case statePreambleVersion:
		return "preamble/version"
	case stateDispatch:
		return "dispatch"
	case stateDone:
		return "done"
	default:
		return "fatal"
	}
}

// sectionReader reads the preamble, then dispatches each following section
// to its handler until EOF. It enforces the tag ordering rules; handlers
// only decode payloads.
type sectionReader struct {
	d        *decoder
	state    readState
	seen     tagSet
	sections []Tag

	// version validates the MCELL_VERSION payload.
	version  func(string) error
	handlers map[Tag]func(*decoder) error
}

func (sr *sectionReader) run() error {
	if err := sr.loop(); err != nil {
		sr.state = stateFatal
		return err
	}
	sr.state = stateDone
	return nil
}

func (sr *sectionReader) loop() error {
	sr.state = statePreambleByteOrder
	if err := sr.expect(TagByteOrder); err != nil {
		return err
	}
	mark, err := sr.d.raw("mark", 4)
	if err != nil {
		return err
	}
	order, ok := orderFromMark(mark)
	if !ok {
		return corruptf(TagByteOrder, "mark", "unrecognized byte order % x", mark)
	}
	sr.d.order = order
	sr.mark(TagByteOrder)

	sr.state = statePreambleVersion
	if err := sr.expect(TagVersion); err != nil {
		return err
	}
	v, err := sr.d.string("version")
	if err != nil {
		return err
	}
	if sr.version != nil {
		if err := sr.version(v); err != nil {
			return err
		}
	}
	sr.mark(TagVersion)

	sr.state = stateDispatch
	for {
		t, ok, err := sr.d.nextTag()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if !t.valid() {
			return corruptf(0, "", "unknown section tag 0x%02x", byte(t))
		}
		sr.d.tag = t
		if sr.seen.has(t) {
			return corruptf(t, "", "section appears more than once")
		}
		for _, pre := range prerequisites[t] {
			if !sr.seen.has(pre) {
				return corruptf(t, "", "section must follow %s", pre)
			}
		}
		if h := sr.handlers[t]; h != nil {
			if err := h(sr.d); err != nil {
				return err
			}
		}
		sr.mark(t)
	}

	for _, t := range requiredTags {
		if !sr.seen.has(t) {
			return corruptf(0, "", "missing required section %s", t)
		}
	}
	return nil
}

func (sr *sectionReader) expect(want Tag) error {
	t, ok, err := sr.d.nextTag()
	if err != nil {
		return err
	}
	if !ok {
		return corruptf(0, "", "missing required section %s", want)
	}
	if t != want {
		return corruptf(0, "", "expected %s, found %s", want, t)
	}
	sr.d.tag = t
	return nil
}

func (sr *sectionReader) mark(t Tag) {
	sr.seen.add(t)
	sr.sections = append(sr.sections, t)
}
