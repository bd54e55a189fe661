package ingest

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/genome"
	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/segment"
)

// headerTag starts the header line that lists the file's genomes.
const headerTag = "H\tORI"

// checkEvery is how many lines pass between context checks.
const checkEvery = 4096

// parser is the single writer of one ingestion. It owns the graph, the
// genome index and both sinks until parse returns.
type parser struct {
	logger    *log.Logger
	total     int
	progress  func(float64)
	maxIssues int
	maxNodes  int

	g        *graph.Graph
	genomes  *genome.Index
	segments *segment.Store
	gw       *genome.Writer
	genomeW  io.Writer

	line       int
	header     bool
	lastID     int
	nSegments  int
	nLinks     int
	duplicates int
	issues     []*errors.Error
	issueCount int
}

func newParser(segments *segment.Store, genomeW io.Writer, total, maxIssues int, progress func(float64), logger *log.Logger) *parser {
	return &parser{
		logger:    logger,
		total:     total,
		progress:  progress,
		maxIssues: maxIssues,
		g:         graph.New(),
		segments:  segments,
		genomeW:   genomeW,
		lastID:    -1,
		maxNodes:  DefaultMaxNodes,
	}
}

// parse consumes r line by line. Per-record format errors are collected as
// issues; any other error aborts the parse.
func (p *parser) parse(ctx context.Context, r io.Reader) error {
	br := bufio.NewReaderSize(r, 1<<20)
	var buf []byte
	for {
		var err error
		buf, err = readLine(br, buf[:0])
		if err != nil && err != io.EOF {
			return errors.Wrap(errors.ErrCodeIO, err, "read line %d", p.line+1)
		}
		if len(buf) == 0 && err == io.EOF {
			break
		}

		p.line++
		if p.line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if rerr := p.record(buf); rerr != nil {
			if !errors.IsFormat(rerr) {
				return rerr
			}
			p.issue(rerr)
		}
		p.report()

		if err == io.EOF {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.finish()
}

// readLine appends the next line of br to buf without its line terminator.
// Lines of any length are supported.
func readLine(br *bufio.Reader, buf []byte) ([]byte, error) {
	for {
		chunk, err := br.ReadSlice('\n')
		buf = append(buf, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		buf = bytes.TrimSuffix(buf, []byte{'\n'})
		buf = bytes.TrimSuffix(buf, []byte{'\r'})
		return buf, err
	}
}

// report posts linesProcessed/totalLines, throttled to once per percent.
// Inputs under 100 lines report every line.
func (p *parser) report() {
	if p.progress == nil || p.total <= 0 {
		return
	}
	if p.total < 100 || p.line%(p.total/100) == 0 {
		p.progress(min(float64(p.line)/float64(p.total), 1))
	}
}

func (p *parser) issue(err error) {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		e = errors.Format(p.line, "%v", err)
	}
	p.issueCount++
	if len(p.issues) < p.maxIssues {
		p.issues = append(p.issues, e)
		p.logger.Warn("skipping record", "line", e.Line, "code", e.Code, "err", e.Message)
	} else if p.issueCount == p.maxIssues+1 {
		p.logger.Warn("too many malformed records, suppressing further warnings", "limit", p.maxIssues)
	}
}

func (p *parser) record(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	if !p.header {
		switch {
		case bytes.HasPrefix(raw, []byte(headerTag)):
			return p.parseHeader(string(raw))
		case raw[0] == 'S' || raw[0] == 'L':
			return errors.Format(p.line, "unexpected record order: %c record before the %s header", raw[0], headerTag)
		}
		return nil
	}

	switch raw[0] {
	case 'S':
		return p.parseSegment(strings.Split(string(raw), "\t"))
	case 'L':
		return p.parseLink(strings.Split(string(raw), "\t"))
	case 'H':
		if bytes.HasPrefix(raw, []byte(headerTag)) {
			return errors.Format(p.line, "duplicate %s header", headerTag)
		}
	}
	return nil
}

// parseHeader reads the genome list from either "H\tORI:Z:a;b" (the text
// after the second colon) or "H\tORI\ta;b" (the third field).
func (p *parser) parseHeader(line string) error {
	var list string
	if strings.HasPrefix(line, headerTag+":") {
		list = afterSecondColon(line)
	} else if fields := strings.Split(line, "\t"); len(fields) > 2 {
		list = fields[2]
	}
	if i := strings.IndexByte(list, '\t'); i >= 0 {
		list = list[:i]
	}

	names := genome.ParseHeaderList(list)
	gw, err := genome.NewWriter(p.genomeW, names)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write genome table header")
	}
	p.genomes = genome.NewIndex(names)
	p.gw = gw
	p.header = true
	if len(names) == 0 {
		p.logger.Warn("header lists no genomes", "line", p.line)
	}
	p.logger.Debug("header", "line", p.line, "genomes", len(names))
	return nil
}

func afterSecondColon(s string) string {
	for range 2 {
		i := strings.IndexByte(s, ':')
		if i < 0 {
			return s
		}
		s = s[i+1:]
	}
	return s
}

// pathTokens splits a segment's path field into genome identifiers.
func pathTokens(field string) []string {
	if strings.Count(field, ":") >= 2 {
		field = afterSecondColon(field)
	}
	var tokens []string
	for _, tok := range strings.Split(field, ";") {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// parseSegment handles "S\t<id>\t<seq>\t<orientation>\t<path-field>".
// The record is validated completely before anything is applied.
func (p *parser) parseSegment(fields []string) error {
	if len(fields) < 3 {
		return errors.Format(p.line, "segment record has %d fields, want at least 3", len(fields))
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 1 {
		return errors.Format(p.line, "segment id %q is not a positive integer", fields[1])
	}
	id--
	if id >= p.maxNodes {
		return errors.Format(p.line, "segment id %d exceeds the node limit %d", id+1, p.maxNodes)
	}
	if id <= p.lastID {
		return errors.Format(p.line, "segment id %d does not increase (previous %d)", id+1, p.lastID+1)
	}
	seq := fields[2]
	if seq == "*" {
		seq = ""
	}

	var tokens []string
	if len(fields) > 4 {
		tokens = pathTokens(fields[4])
	}
	if p.genomes.Basis() == genome.BasisUnknown && len(tokens) > 0 {
		basis, err := p.genomes.Classify(tokens[0])
		if err != nil {
			return errors.Format(p.line, "cannot classify genome basis: %v", err)
		}
		p.logger.Debug("genome basis", "basis", basis, "line", p.line)
	}
	var ids []int
	if len(tokens) > 0 {
		if ids, err = p.genomes.ResolveAll(tokens); err != nil {
			if stderrors.Is(err, genome.ErrMixedBasis) {
				return errors.MixedBasis(p.line, "%v", err)
			}
			return errors.Format(p.line, "%v", err)
		}
	}

	if err := p.g.AddNode(id, graph.Node{}, seq); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "add node %d", id)
	}
	if err := p.segments.Put(id, seq); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write segment %d", id)
	}
	if err := p.gw.Put(id, ids); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write genomes of segment %d", id)
	}
	p.genomes.Set(id, ids)
	p.lastID = id
	p.nSegments++
	return nil
}

// parseLink handles "L\t<from>\t<orient>\t<to>\t<orient>...".
func (p *parser) parseLink(fields []string) error {
	if p.lastID < 0 {
		return errors.Format(p.line, "unexpected record order: link before any segment")
	}
	if len(fields) < 4 {
		return errors.Format(p.line, "link record has %d fields, want at least 4", len(fields))
	}
	from, err := strconv.Atoi(fields[1])
	if err != nil || from < 1 {
		return errors.Format(p.line, "link source %q is not a positive integer", fields[1])
	}
	to, err := strconv.Atoi(fields[3])
	if err != nil || to < 1 {
		return errors.Format(p.line, "link target %q is not a positive integer", fields[3])
	}
	from, to = from-1, to-1
	if from >= p.maxNodes || to >= p.maxNodes {
		return errors.Format(p.line, "link %d→%d exceeds the node limit %d", from+1, to+1, p.maxNodes)
	}

	if p.g.HasEdge(from, to) {
		p.duplicates++
		return nil
	}
	if err := p.g.AddEdge(from, to); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "add edge %d→%d", from, to)
	}
	p.nLinks++
	return nil
}

// finish pads the sinks so both hold one line per node, then flushes them.
func (p *parser) finish() error {
	if !p.header {
		return errors.Format(0, "missing %s header line", headerTag)
	}

	size := p.g.Size()
	if missing := size - (p.lastID + 1); missing > 0 {
		p.logger.Warn("links reference nodes without segments", "nodes", missing)
	}
	p.genomes.Pad(size)
	if err := p.segments.Pad(size); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "pad segments")
	}
	if err := p.gw.Pad(size); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "pad genome table")
	}
	if err := p.gw.Flush(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "flush genome table")
	}
	if err := p.segments.Finish(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "flush segments")
	}
	return nil
}
