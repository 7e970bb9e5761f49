package ast

type (
	TypeID uint32
	DeclID uint32
	StmtID uint32
	ExprID uint32
)

const (
	NoTypeID TypeID = 0
	NoDeclID DeclID = 0
	NoStmtID StmtID = 0
	NoExprID ExprID = 0
)

func (id TypeID) IsValid() bool { return id != NoTypeID }
func (id DeclID) IsValid() bool { return id != NoDeclID }
func (id StmtID) IsValid() bool { return id != NoStmtID }
func (id ExprID) IsValid() bool { return id != NoExprID }
