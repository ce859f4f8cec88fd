package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变化并重新加载
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch 监听 path 所在目录，文件被写入或替换时调用 onChange。
// 解析失败的内容会交给 onError，旧配置保持不变。
func Watch(path string, onChange func(*Config), onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建配置监听失败: %w", err)
	}

	// 编辑器常以"写临时文件再 rename"的方式保存，所以监听目录而不是文件本身
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("监听配置目录失败: %w", err)
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	target := filepath.Clean(path)

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				onChange(cfg)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			}
		}
	}()

	return w, nil
}

// Close 停止监听
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
