package boundary

import "ticksession/internal/dto"

// DataNew takes a record produced on the Go side, typically by a merge, and hands it out.
func (r *Registry) DataNew(d dto.Data) Handle {
	return r.put(d)
}

// DataFromQuote wraps a copy of the quote behind h; h remains owned by the caller.
func (r *Registry) DataFromQuote(h Handle) Handle {
	return r.put(dto.FromQuote(lookup[dto.QuoteTick](r, h)))
}

// DataFromTrade wraps a copy of the trade behind h; h remains owned by the caller.
func (r *Registry) DataFromTrade(h Handle) Handle {
	return r.put(dto.FromTrade(lookup[dto.TradeTick](r, h)))
}

func (r *Registry) Data(h Handle) dto.Data {
	return lookup[dto.Data](r, h)
}

func (r *Registry) DataClone(h Handle) Handle {
	return r.put(lookup[dto.Data](r, h))
}

func (r *Registry) DataRelease(h Handle) {
	releaseAs[dto.Data](r, h)
}

func (r *Registry) DataKind(h Handle) dto.DataKind {
	return lookup[dto.Data](r, h).Kind()
}

func (r *Registry) DataTsInit(h Handle) uint64 {
	return uint64(lookup[dto.Data](r, h).TsInit())
}

func (r *Registry) DataToCString(h Handle) []byte {
	return cString(lookup[dto.Data](r, h).String())
}
