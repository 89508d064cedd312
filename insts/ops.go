package insts

// Op represents an ARMv7-A operation tag.
type Op uint16

// Operation tags. Data-processing operations come in immediate (Imm),
// register with immediate shift (Reg) and register-shifted register (Rsr)
// forms.
const (
	OpUnknown Op = iota

	// Data-processing (immediate)
	OpANDImm
	OpEORImm
	OpSUBImm
	OpRSBImm
	OpADDImm
	OpADCImm
	OpSBCImm
	OpRSCImm
	OpTSTImm
	OpTEQImm
	OpCMPImm
	OpCMNImm
	OpORRImm
	OpMOVImm
	OpBICImm
	OpMVNImm
	OpADR

	// Data-processing (register)
	OpANDReg
	OpEORReg
	OpSUBReg
	OpRSBReg
	OpADDReg
	OpADCReg
	OpSBCReg
	OpRSCReg
	OpTSTReg
	OpTEQReg
	OpCMPReg
	OpCMNReg
	OpORRReg
	OpMOVReg
	OpLSLImm
	OpLSRImm
	OpASRImm
	OpRRX
	OpRORImm
	OpBICReg
	OpMVNReg

	// Data-processing (register-shifted register)
	OpANDRsr
	OpEORRsr
	OpSUBRsr
	OpRSBRsr
	OpADDRsr
	OpADCRsr
	OpSBCRsr
	OpRSCRsr
	OpTSTRsr
	OpTEQRsr
	OpCMPRsr
	OpCMNRsr
	OpORRRsr
	OpLSLReg
	OpLSRReg
	OpASRReg
	OpRORReg
	OpBICRsr
	OpMVNRsr

	// 16-bit immediate moves
	OpMOVW
	OpMOVT

	// Miscellaneous
	OpMRS
	OpMSRReg
	OpMSRImm
	OpBX
	OpBLXReg
	OpCLZ
	OpQADD
	OpQSUB
	OpQDADD
	OpQDSUB
	OpBKPT

	// Hints
	OpNOP
	OpYIELD
	OpWFE
	OpWFI
	OpSEV
	OpDBG

	// Multiply
	OpMUL
	OpMLA
	OpUMAAL
	OpMLS
	OpUMULL
	OpUMLAL
	OpSMULL
	OpSMLAL
	OpSMLAxy
	OpSMLAWy
	OpSMULWy
	OpSMLALxy
	OpSMULxy

	// Synchronization
	OpLDREX
	OpSTREX

	// Load/store word and unsigned byte
	OpSTRImm
	OpSTRReg
	OpSTRT
	OpLDRImm
	OpLDRReg
	OpLDRT
	OpSTRBImm
	OpSTRBReg
	OpSTRBT
	OpLDRBImm
	OpLDRBReg
	OpLDRBT

	// Extra load/store
	OpSTRHImm
	OpSTRHReg
	OpLDRHImm
	OpLDRHReg
	OpLDRSBImm
	OpLDRSBReg
	OpLDRSHImm
	OpLDRSHReg
	OpLDRDImm
	OpLDRDReg
	OpSTRDImm
	OpSTRDReg
	OpSTRHT
	OpLDRHT
	OpLDRSBT
	OpLDRSHT

	// Media
	OpPKH
	OpSXTAB16
	OpSXTB16
	OpSXTAB
	OpSXTB
	OpSXTAH
	OpSXTH
	OpUXTAB16
	OpUXTB16
	OpUXTAB
	OpUXTB
	OpUXTAH
	OpUXTH
	OpSSAT
	OpUSAT
	OpREV
	OpREV16
	OpREVSH
	OpRBIT
	OpSMLAD
	OpSMUAD
	OpSMLSD
	OpSMUSD
	OpSMLALD
	OpSMLSLD
	OpSMMLA
	OpSMMUL
	OpSMMLS
	OpSDIV
	OpUDIV
	OpUSAD8
	OpUSADA8
	OpSBFX
	OpUBFX
	OpBFI
	OpBFC

	// Branch and block data transfer
	OpSTMDA
	OpLDMDA
	OpSTM
	OpLDM
	OpSTMDB
	OpLDMDB
	OpSTMIB
	OpLDMIB
	OpSTMUser
	OpLDMUser
	OpLDMExcReturn
	OpB
	OpBL

	// Coprocessor and supervisor call
	OpSVC
	OpMCR
	OpMRC

	// Unconditional
	OpCPS
	OpSETEND
	OpPLD
	OpPLDW
	OpPLI
	OpCLREX
	OpDSB
	OpDMB
	OpISB
	OpSRS
	OpRFE

	// NumOps is the number of operation tags.
	NumOps
)

var opNames = [NumOps]string{
	OpUnknown: "UNKNOWN",

	OpANDImm: "AND", OpEORImm: "EOR", OpSUBImm: "SUB", OpRSBImm: "RSB",
	OpADDImm: "ADD", OpADCImm: "ADC", OpSBCImm: "SBC", OpRSCImm: "RSC",
	OpTSTImm: "TST", OpTEQImm: "TEQ", OpCMPImm: "CMP", OpCMNImm: "CMN",
	OpORRImm: "ORR", OpMOVImm: "MOV", OpBICImm: "BIC", OpMVNImm: "MVN",
	OpADR: "ADR",

	OpANDReg: "AND", OpEORReg: "EOR", OpSUBReg: "SUB", OpRSBReg: "RSB",
	OpADDReg: "ADD", OpADCReg: "ADC", OpSBCReg: "SBC", OpRSCReg: "RSC",
	OpTSTReg: "TST", OpTEQReg: "TEQ", OpCMPReg: "CMP", OpCMNReg: "CMN",
	OpORRReg: "ORR", OpMOVReg: "MOV", OpLSLImm: "LSL", OpLSRImm: "LSR",
	OpASRImm: "ASR", OpRRX: "RRX", OpRORImm: "ROR", OpBICReg: "BIC",
	OpMVNReg: "MVN",

	OpANDRsr: "AND", OpEORRsr: "EOR", OpSUBRsr: "SUB", OpRSBRsr: "RSB",
	OpADDRsr: "ADD", OpADCRsr: "ADC", OpSBCRsr: "SBC", OpRSCRsr: "RSC",
	OpTSTRsr: "TST", OpTEQRsr: "TEQ", OpCMPRsr: "CMP", OpCMNRsr: "CMN",
	OpORRRsr: "ORR", OpLSLReg: "LSL", OpLSRReg: "LSR", OpASRReg: "ASR",
	OpRORReg: "ROR", OpBICRsr: "BIC", OpMVNRsr: "MVN",

	OpMOVW: "MOVW", OpMOVT: "MOVT",

	OpMRS: "MRS", OpMSRReg: "MSR", OpMSRImm: "MSR", OpBX: "BX",
	OpBLXReg: "BLX", OpCLZ: "CLZ", OpQADD: "QADD", OpQSUB: "QSUB",
	OpQDADD: "QDADD", OpQDSUB: "QDSUB", OpBKPT: "BKPT",

	OpNOP: "NOP", OpYIELD: "YIELD", OpWFE: "WFE", OpWFI: "WFI",
	OpSEV: "SEV", OpDBG: "DBG",

	OpMUL: "MUL", OpMLA: "MLA", OpUMAAL: "UMAAL", OpMLS: "MLS",
	OpUMULL: "UMULL", OpUMLAL: "UMLAL", OpSMULL: "SMULL", OpSMLAL: "SMLAL",
	OpSMLAxy: "SMLAxy", OpSMLAWy: "SMLAWy", OpSMULWy: "SMULWy",
	OpSMLALxy: "SMLALxy", OpSMULxy: "SMULxy",

	OpLDREX: "LDREX", OpSTREX: "STREX",

	OpSTRImm: "STR", OpSTRReg: "STR", OpSTRT: "STRT",
	OpLDRImm: "LDR", OpLDRReg: "LDR", OpLDRT: "LDRT",
	OpSTRBImm: "STRB", OpSTRBReg: "STRB", OpSTRBT: "STRBT",
	OpLDRBImm: "LDRB", OpLDRBReg: "LDRB", OpLDRBT: "LDRBT",

	OpSTRHImm: "STRH", OpSTRHReg: "STRH", OpLDRHImm: "LDRH", OpLDRHReg: "LDRH",
	OpLDRSBImm: "LDRSB", OpLDRSBReg: "LDRSB", OpLDRSHImm: "LDRSH",
	OpLDRSHReg: "LDRSH", OpLDRDImm: "LDRD", OpLDRDReg: "LDRD",
	OpSTRDImm: "STRD", OpSTRDReg: "STRD", OpSTRHT: "STRHT", OpLDRHT: "LDRHT",
	OpLDRSBT: "LDRSBT", OpLDRSHT: "LDRSHT",

	OpPKH: "PKH", OpSXTAB16: "SXTAB16", OpSXTB16: "SXTB16", OpSXTAB: "SXTAB",
	OpSXTB: "SXTB", OpSXTAH: "SXTAH", OpSXTH: "SXTH", OpUXTAB16: "UXTAB16",
	OpUXTB16: "UXTB16", OpUXTAB: "UXTAB", OpUXTB: "UXTB", OpUXTAH: "UXTAH",
	OpUXTH: "UXTH", OpSSAT: "SSAT", OpUSAT: "USAT", OpREV: "REV",
	OpREV16: "REV16", OpREVSH: "REVSH", OpRBIT: "RBIT", OpSMLAD: "SMLAD",
	OpSMUAD: "SMUAD", OpSMLSD: "SMLSD", OpSMUSD: "SMUSD", OpSMLALD: "SMLALD",
	OpSMLSLD: "SMLSLD", OpSMMLA: "SMMLA", OpSMMUL: "SMMUL", OpSMMLS: "SMMLS",
	OpSDIV: "SDIV", OpUDIV: "UDIV", OpUSAD8: "USAD8", OpUSADA8: "USADA8",
	OpSBFX: "SBFX", OpUBFX: "UBFX", OpBFI: "BFI", OpBFC: "BFC",

	OpSTMDA: "STMDA", OpLDMDA: "LDMDA", OpSTM: "STM", OpLDM: "LDM",
	OpSTMDB: "STMDB", OpLDMDB: "LDMDB", OpSTMIB: "STMIB", OpLDMIB: "LDMIB",
	OpSTMUser: "STM^", OpLDMUser: "LDM^", OpLDMExcReturn: "LDM^pc",
	OpB: "B", OpBL: "BL",

	OpSVC: "SVC", OpMCR: "MCR", OpMRC: "MRC",

	OpCPS: "CPS", OpSETEND: "SETEND", OpPLD: "PLD", OpPLDW: "PLDW",
	OpPLI: "PLI", OpCLREX: "CLREX", OpDSB: "DSB", OpDMB: "DMB",
	OpISB: "ISB", OpSRS: "SRS", OpRFE: "RFE",
}

// String returns the mnemonic of the operation.
func (o Op) String() string {
	if o < NumOps && opNames[o] != "" {
		return opNames[o]
	}
	return "UNKNOWN"
}

// IsLoadStore reports whether the operation accesses data memory.
func (o Op) IsLoadStore() bool {
	switch {
	case o >= OpLDREX && o <= OpLDRSHT:
		return true
	case o >= OpSTMDA && o <= OpLDMExcReturn:
		return true
	case o == OpSRS || o == OpRFE:
		return true
	}
	return false
}
