package repo

import "errors"

var (
	// ErrNotFound indica que o registro referenciado não existe (ou sumiu entre leitura e escrita).
	ErrNotFound = errors.New("registro não encontrado")
	// ErrConflict indica violação de capacidade/ocupação detectada dentro da transação.
	ErrConflict = errors.New("vaga já ocupada")
	// ErrGridFull indica que a célula da grade não tem coluna livre. Aviso, não bloqueio.
	ErrGridFull = errors.New("grade sem coluna livre")
)
