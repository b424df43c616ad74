package emu

// DemoProgram is a Z80 program that plays a four-note loop on voice 0 of
// the left chip of a card at 0x220.
//
//	0000  LD   SP,F000
//	0003  LD   BC,0221     ; left control port
//	0006  LD   A,FF
//	0008  OUT  (C),A       ; both outputs full
//	000A  DEC  C           ; left data port
//	000B  LD   A,90
//	000D  OUT  (C),A       ; voice 0 attenuation 0
//	000F  LD   HL,002C     ; note table
//	0012  LD   D,04
//	0014  LD   A,(HL)      ; tone latch + low bits
//	0015  OUT  (C),A
//	0017  INC  HL
//	0018  LD   A,(HL)      ; high bits
//	0019  OUT  (C),A
//	001B  INC  HL
//	001C  PUSH BC
//	001D  LD   E,FF
//	001F  LD   B,00
//	0021  DJNZ 0021
//	0023  DEC  E
//	0024  JR   NZ,001F
//	0026  POP  BC
//	0027  DEC  D
//	0028  JR   NZ,0014
//	002A  JR   000F
//	002C  notes
var DemoProgram = []byte{
	0x31, 0x00, 0xF0,
	0x01, 0x21, 0x02,
	0x3E, 0xFF,
	0xED, 0x79,
	0x0D,
	0x3E, 0x90,
	0xED, 0x79,
	0x21, 0x2C, 0x00,
	0x16, 0x04,
	0x7E,
	0xED, 0x79,
	0x23,
	0x7E,
	0xED, 0x79,
	0x23,
	0xC5,
	0x1E, 0xFF,
	0x06, 0x00,
	0x10, 0xFE,
	0x1D,
	0x20, 0xF9,
	0xC1,
	0x15,
	0x20, 0xEA,
	0x18, 0xE3,
	// Tone periods 0x0FE, 0x0CA, 0x0AA, 0x07F.
	0x8E, 0x0F,
	0x8A, 0x0C,
	0x8A, 0x0A,
	0x8F, 0x07,
}

// demoNoteTable is the address of the note table in DemoProgram.
const demoNoteTable = 0x002C
