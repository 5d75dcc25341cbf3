package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"lyricsync/internal/lyrics"
	"lyricsync/pkg/fileutil"
	"lyricsync/pkg/logging"
)

var logger = logging.Component("ipc")

// Server 通过unix socket向本地客户端推送展示帧，每帧一行JSON
type Server struct {
	socketPath      string
	statusFile      string
	listener        net.Listener
	clientConns     map[net.Conn]struct{}
	clientConnsLock sync.Mutex
	last            []byte
	lastStatus      string
	lastLock        sync.Mutex
	lockFile        *os.File
	lockFilePath    string
}

// NewServer statusFile为空时不写状态文件
func NewServer(socketPath, statusFile string) *Server {
	return &Server{
		socketPath:   socketPath,
		statusFile:   statusFile,
		clientConns:  make(map[net.Conn]struct{}),
		lockFilePath: socketPath + ".lock",
	}
}

func (s *Server) checkAndCleanOldLock() {
	// 检查锁文件是否存在
	content, err := os.ReadFile(s.lockFilePath)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid PID in lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	// kill(pid, 0) 只检查进程是否存在
	if syscall.Kill(pid, 0) != nil {
		logger.Info().Int("old_pid", pid).Msg("Process in lock file is not running, removing lock file")
		os.Remove(s.lockFilePath)
		return
	}

	logger.Info().Int("existing_pid", pid).Msg("Another process is still running")
}

func (s *Server) acquireLock() error {
	s.checkAndCleanOldLock()

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	// 尝试获取独占锁
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return errors.New("another lyricsync instance is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if err = file.Truncate(0); err == nil {
		_, err = file.WriteString(fmt.Sprintf("%d\n", os.Getpid()))
	}
	if err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	s.lockFile = file
	logger.Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("Acquired process lock")
	return nil
}

func (s *Server) releaseLock() {
	if s.lockFile != nil {
		syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
		s.lockFile.Close()
		os.Remove(s.lockFilePath)
		logger.Info().Str("lock_file", s.lockFilePath).Msg("Released process lock")
		s.lockFile = nil
	}
}

// Start 获取进程锁并开始监听
func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	logger.Info().Str("socket_path", s.socketPath).Msg("IPC server listening")

	go s.acceptConnections()

	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Error().Err(err).Msg("Failed to accept IPC connection")
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	// 先发送最近一帧再加入广播列表，保证新客户端不会收到乱序的帧
	s.clientConnsLock.Lock()
	s.lastLock.Lock()
	last := s.last
	s.lastLock.Unlock()
	if last != nil {
		if _, err := conn.Write(last); err != nil {
			logger.Error().Err(err).Msg("Failed to send initial frame")
		}
	}
	s.clientConns[conn] = struct{}{}
	s.clientConnsLock.Unlock()

	logger.Info().Msg("Client connected")

	buf := make([]byte, 1)
	for {
		if _, err := conn.Read(buf); err != nil {
			break
		}
	}

	s.clientConnsLock.Lock()
	delete(s.clientConns, conn)
	s.clientConnsLock.Unlock()
	conn.Close()
	logger.Info().Msg("Client disconnected")
}

// Broadcast 向所有客户端推送一帧，并在当前行变化时更新状态文件。
// 返回值表示状态文本是否变化。
func (s *Server) Broadcast(frame lyrics.Frame) (bool, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return false, fmt.Errorf("failed to encode frame: %w", err)
	}
	data = append(data, '\n')

	status := StatusLine(frame)
	s.lastLock.Lock()
	s.last = data
	statusChanged := status != s.lastStatus
	s.lastStatus = status
	s.lastLock.Unlock()

	if statusChanged && s.statusFile != "" {
		if err := fileutil.WriteFileOverwrite(s.statusFile, []byte(status+"\n"), 0644); err != nil {
			logger.Warn().Err(err).Str("status_file", s.statusFile).Msg("Failed to write status file")
		}
	}

	s.clientConnsLock.Lock()
	defer s.clientConnsLock.Unlock()

	for conn := range s.clientConns {
		if _, err := conn.Write(data); err != nil {
			logger.Error().Err(err).Msg("Failed to write to client, removing")
			conn.Close()
			delete(s.clientConns, conn)
		}
	}
	return statusChanged, nil
}

// StatusLine 状态栏显示的一行文本
func StatusLine(frame lyrics.Frame) string {
	if !frame.Ready {
		if frame.Title == "" {
			return "No music playing..."
		}
		return fmt.Sprintf("... Searching for lyrics for %s - %s ...", frame.Artist, frame.Title)
	}
	current := frame.Current()
	text := strings.TrimSpace(current.Line.Text)
	if current.Translation != "" && current.Translation != current.Line.Text {
		text += " / " + current.Translation
	}
	return text
}

// Clients 当前连接的客户端数
func (s *Server) Clients() int {
	s.clientConnsLock.Lock()
	defer s.clientConnsLock.Unlock()
	return len(s.clientConns)
}

// Close 停止监听并断开所有客户端
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.clientConnsLock.Lock()
	for conn := range s.clientConns {
		conn.Close()
		delete(s.clientConns, conn)
	}
	s.clientConnsLock.Unlock()
	os.Remove(s.socketPath)
	s.releaseLock()
}
