package mysql

const createKVSQL = `
CREATE TABLE IF NOT EXISTS kv_store (
  k          VARCHAR(191) NOT NULL PRIMARY KEY,
  v          MEDIUMBLOB   NOT NULL,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const getKVSQL = `SELECT v FROM kv_store WHERE k = ?`

// Use VALUES(col) for broad compatibility with MySQL 5.7 and MariaDB.
const upsertKVSQL = `
INSERT INTO kv_store (k, v)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  v          = VALUES(v),
  updated_at = CURRENT_TIMESTAMP
`

const deleteKVSQL = `DELETE FROM kv_store WHERE k = ?`
