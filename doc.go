/* Package main: gorvmi -- a small stack VM for a textual bytecode

A program is a text file of whitespace separated words. It opens with three
section markers, then declares its functions:

	.raw
	.class
	.function
	defun main 0 NULL
	  pushi 3 pushi 4 sub   ; 4 - 3
	  call println
	endef

Anything from ';' to the end of a line is a comment. A double-quoted literal
may contain white space, but has no escapes.

Each defun names a function, its parameter count and types, and its return
type. The declared types are never checked: arguments and results simply flow
through the operand stack, which every function shares with its caller.

Values are atoms: 32-bit ints, 32-bit floats, strings, null, and heap
references. The heap is a flat array of atoms, addressed by the immediate
operand of load, store and stores; storing past its end grows it with nulls.

Binary operators pop their left operand first, then their right one; so the
program above prints 1. Comparisons push Int 1 or Int 0, which branch then
tests; goto and branch jump to a label declared in the same function body.

A call runs a runtime primitive if there is one by that name (print, println,
readint), otherwise the first function declared under that name. Running a
program calls its first main; a program without one does nothing.

Every runtime failure, like a type mismatch or an empty stack, aborts the run.

Programs may also be assembled once into a binary image (see the -o flag), and
later run from it without re-reading their source.
*/
package main
