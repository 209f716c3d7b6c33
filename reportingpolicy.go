package suit

// ReportingPolicy is the 4-bit suit-reporting-policy bitfield carried as
// the argument of a condition or directive command, controlling whether a status record and/or
// system info are added on success and/or failure.
type ReportingPolicy struct {
	policy uint8
}

const (
	policySendRecordOnSuccess  = 0x01
	policySendRecordOnFailure  = 0x02
	policyAddSysinfoOnSuccess  = 0x04
	policyAddSysinfoOnFailure  = 0x08
	policyMask                 = 0x0f
)

// DecodeReportingPolicy decodes a reporting policy byte from c, rejecting
// any bit outside the defined 4-bit range.
func DecodeReportingPolicy(c *Cursor) (ReportingPolicy, error) {
	v, err := c.Uint8()
	if err != nil {
		return ReportingPolicy{}, err
	}
	if v > policyMask {
		return ReportingPolicy{}, errAt(KindUnexpectedCbor, c.Position())
	}
	return ReportingPolicy{policy: v}, nil
}

func (p ReportingPolicy) SendRecordOnSuccess() bool { return p.policy&policySendRecordOnSuccess != 0 }
func (p ReportingPolicy) SendRecordOnFailure() bool { return p.policy&policySendRecordOnFailure != 0 }
func (p ReportingPolicy) AddSysinfoOnSuccess() bool { return p.policy&policyAddSysinfoOnSuccess != 0 }
func (p ReportingPolicy) AddSysinfoOnFailure() bool { return p.policy&policyAddSysinfoOnFailure != 0 }
