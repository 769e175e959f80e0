package acpi

type Signature string

func (s Signature) ToBytes() [4]byte {
	var ret [4]byte

	for i := 0; i < 4; i++ {
		ret[i] = s[i]
	}

	return ret
}

const SigMCFG Signature = "MCFG"
